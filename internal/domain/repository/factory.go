package repository

import "context"

// Factory describes access to different domain repositories.
type Factory interface {
	Users() UserRepository
	Orders() OrderRepository
	Products() ProductRepository
	Categories() CategoryRepository
	Carts() CartRepository
	History() HistoryRepository
	Outbox() OutboxRepository
}

// Transactor runs fn with repositories bound to a single database transaction.
// Returning an error from fn rolls every write back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(Factory) error) error
}

// Store combines non-transactional repository access with transactions.
type Store interface {
	Factory
	Transactor
}
