package domain

import "errors"

var (
	ErrGameNotFound          = errors.New("game not found")
	ErrPoolNotFound          = errors.New("pool not found")
	ErrPoolAlreadyClaimed    = errors.New("pool already claimed")
	ErrPoolStale             = errors.New("pool stale")
	ErrEmptySelectionPool    = errors.New("empty selection pool")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrInventoryMismatch     = errors.New("inventory mismatch")
	ErrInvalidBundleSize     = errors.New("invalid bundle size")
	ErrInvalidCount          = errors.New("invalid count")
	ErrInvalidMargin         = errors.New("invalid margin")
	ErrUserIDRequired        = errors.New("user id required")
	ErrInvalidID             = errors.New("invalid id")
)
