package auth

import (
	"context"
	"testing"
	"time"

	"go.uber.org/fx"
	"golang.org/x/crypto/bcrypt"

	"github.com/polkiloo/grocerymart/internal/config"
	"github.com/polkiloo/grocerymart/internal/domain/model"
)

func TestModuleProvidesHasherAndStrategy(t *testing.T) {
	var (
		hasher   PasswordHasher
		strategy Strategy
	)
	app := fx.New(
		fx.NopLogger,
		fx.Supply(&config.Config{JWTSecret: "top-secret", TokenTTL: time.Hour}),
		Module,
		fx.Populate(&hasher, &strategy),
	)
	t.Cleanup(func() { _ = app.Stop(context.Background()) })
	if err := app.Err(); err != nil {
		t.Fatalf("fx app failed: %v", err)
	}

	if b, ok := hasher.(*BcryptHasher); !ok || b.cost != bcrypt.DefaultCost {
		t.Fatalf("expected default cost bcrypt hasher, got %#v", hasher)
	}

	jwtStrategy, ok := strategy.(*JWTStrategy)
	if !ok {
		t.Fatalf("expected *JWTStrategy, got %T", strategy)
	}
	if jwtStrategy.ttl != time.Hour {
		t.Fatalf("unexpected ttl: %s", jwtStrategy.ttl)
	}

	token, err := strategy.IssueToken(11, model.RoleAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := strategy.ParseToken(token)
	if err != nil || claims.UserID != 11 || claims.Role != model.RoleAdmin {
		t.Fatalf("unexpected claims %+v %v", claims, err)
	}
}
