package tac

import (
	"time"

	"github.com/shopspring/decimal"

	"salarizare/internal/domain/formula"
)

// TAC is a transaction allocation template: an ordered list of rows whose
// formulas turn one transaction into ledger postings.
type TAC struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Rows        []Row     `json:"rows"`
}

type Row struct {
	ID                  int64  `json:"id,omitempty"`
	FisaCont            string `json:"fisaCont"`
	ContCorespondent    string `json:"contCorespondent,omitempty"`
	DebitFormula        string `json:"debitFormula,omitempty"`
	CreditFormula       string `json:"creditFormula,omitempty"`
	ValutaFormula       string `json:"valutaFormula,omitempty"`
	MonedaValutaFormula string `json:"monedaValutaFormula,omitempty"`
	Order               int    `json:"rowOrder"`
}

type Transaction struct {
	ID              int64        `json:"id"`
	TACID           *int64       `json:"tacId,omitempty"`
	TransactionDate time.Time    `json:"transactionDate"`
	Description     string       `json:"description,omitempty"`
	Variables       formula.Vars `json:"variables"`
	CreatedAt       time.Time    `json:"createdAt"`
}

// AccountFileEntry is one ledger posting ("fisa cont") generated from a row.
type AccountFileEntry struct {
	ID               int64            `json:"id"`
	TransactionID    int64            `json:"transactionId"`
	FisaCont         string           `json:"fisaCont"`
	ContCorespondent *string          `json:"contCorespondent,omitempty"`
	Debit            decimal.Decimal  `json:"debit"`
	Credit           decimal.Decimal  `json:"credit"`
	Valuta           *decimal.Decimal `json:"valuta,omitempty"`
	MonedaValuta     *string          `json:"monedaValuta,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// TransactionInput is what a caller supplies to record a transaction.
type TransactionInput struct {
	TACID           *int64
	TransactionDate time.Time
	Description     string
	Variables       formula.Vars
}

// ApplyReport summarises the entries produced for one transaction.
type ApplyReport struct {
	TransactionID int64              `json:"transactionId"`
	Entries       []AccountFileEntry `json:"entries"`
	Unresolved    []string           `json:"unresolved,omitempty"`
}
