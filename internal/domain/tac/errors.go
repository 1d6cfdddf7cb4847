package tac

import "errors"

var (
	ErrTACNotFound         = errors.New("tac not found")
	ErrTACNameRequired     = errors.New("tac name is required")
	ErrTACNameTaken        = errors.New("tac name already exists")
	ErrFisaContRequired    = errors.New("every tac row needs a fisa cont")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrTransactionDate     = errors.New("transaction date is required")
)
