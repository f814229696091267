// Package repository contains data access layer abstractions.
// Implementations live in subpackages (postgres) inside this directory.
package repository

import "context"

// TxFn is a function that runs within a transaction. Repositories called with
// the ctx it receives join that transaction.
type TxFn func(ctx context.Context) error

// TxManager runs units of work atomically.
type TxManager interface {
	// ExecTx runs fn in a read-write transaction. It commits when fn returns nil
	// and rolls back otherwise, including on context cancellation.
	ExecTx(ctx context.Context, fn TxFn) error

	// ReadSnapshot runs fn in a read-only repeatable-read transaction so every
	// query inside it observes the same snapshot.
	ReadSnapshot(ctx context.Context, fn TxFn) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
