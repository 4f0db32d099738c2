package interfaces

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when the requested document does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey is returned when a unique index rejects a write.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrConditionFailed is returned when a conditional update matched no document.
	ErrConditionFailed = errors.New("update condition not met")
)

// TxManager runs fn atomically. Repository calls that receive the ctx passed to fn
// take part in the same transaction.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
