package model

import "errors"

var (
	ErrInvalidAmount             = errors.New("amount must be a positive number of cents")
	ErrAmountTooLarge            = errors.New("amount exceeds the per-transaction limit")
	ErrInsufficientOverdraftRoom = errors.New("withdrawal would exceed the overdraft limit")
	ErrUnknownAccountKind        = errors.New("unknown account kind")
)
