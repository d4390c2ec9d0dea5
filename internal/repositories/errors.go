package repositories

import "errors"

var (
	// ErrProductNotFound is returned when a lookup or delete targets an
	// identifier that has no row. Callers treat it as an outcome, not a fault.
	ErrProductNotFound = errors.New("product not found")

	// ErrDuplicateSKU is returned when an insert violates the unique
	// constraint on the sku column.
	ErrDuplicateSKU = errors.New("duplicate sku")
)
