package model

import "errors"

var (
	// ErrNotFound indicates that a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument indicates malformed input, such as a non-positive
	// amount or a download link without an http(s) scheme.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInsufficientFunds indicates the reseller's balance does not cover
	// the plan's cost.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrUnavailable indicates a plan cannot be purchased or downloaded,
	// typically because it has no download link.
	ErrUnavailable = errors.New("unavailable")
	// ErrForbidden indicates an attempt to access another account's record.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict indicates a uniqueness violation, such as a duplicate
	// username.
	ErrConflict = errors.New("conflict")
)
