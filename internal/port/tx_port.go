package port

import (
	"context"
	"errors"
)

var (
	ErrOrderNumberTaken = errors.New("order number already taken")
	ErrCheckoutKeyTaken = errors.New("checkout key already used")
	ErrActiveCartExists = errors.New("active cart already exists")
)

// Repositories are bound to one transaction when handed out by a Transactor.
type Repositories struct {
	Carts  CartRepository
	Orders OrderRepository
}

type Transactor interface {
	// WithinTx runs fn in a transaction, committing only if fn returns nil.
	WithinTx(ctx context.Context, fn func(repos Repositories) error) error
}
