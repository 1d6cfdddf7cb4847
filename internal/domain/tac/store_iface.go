package tac

import "context"

type StoreAPI interface {
	ListTACs(ctx context.Context) ([]TAC, error)
	GetTAC(ctx context.Context, id int64) (TAC, error)
	GetTACByName(ctx context.Context, name string) (TAC, error)
	CreateTAC(ctx context.Context, t TAC) (int64, error)
	UpdateTAC(ctx context.Context, t TAC) error
	DeleteTAC(ctx context.Context, id int64) error
	CountTransactions(ctx context.Context) (int, error)
	ListTransactions(ctx context.Context) ([]Transaction, error)
	GetTransaction(ctx context.Context, id int64) (Transaction, error)
	CreateTransaction(ctx context.Context, t Transaction) (int64, error)
	CreateTransactions(ctx context.Context, ts []Transaction) ([]int64, error)
	DeleteTransaction(ctx context.Context, id int64) error
	ListEntries(ctx context.Context, transactionID *int64) ([]AccountFileEntry, error)
	ReplaceEntries(ctx context.Context, transactionID int64, entries []AccountFileEntry) error
}
