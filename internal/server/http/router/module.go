package router

import "go.uber.org/fx"

// Module provides the gin engine serving storefront, admin and operational routes.
var Module = fx.Provide(Setup)
