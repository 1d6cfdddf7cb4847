package tac

import (
	"strings"

	"github.com/shopspring/decimal"

	"salarizare/internal/domain/formula"
)

// EntryResult is the evaluated form of one TAC row before it is persisted.
type EntryResult struct {
	FisaCont         string   `json:"fisaCont"`
	ContCorespondent *string  `json:"contCorespondent,omitempty"`
	Debit            float64  `json:"debit"`
	Credit           float64  `json:"credit"`
	Valuta           *float64 `json:"valuta,omitempty"`
	MonedaValuta     *string  `json:"monedaValuta,omitempty"`
}

// Apply evaluates every row against vars and returns one result per row in
// row order. Debit and credit fall back to zero so each row always yields a
// ledger line; valuta is kept only when numeric and monedaValuta only when text.
func Apply(rows []Row, vars formula.Vars) []EntryResult {
	results := make([]EntryResult, 0, len(rows))
	for _, row := range rows {
		result := EntryResult{FisaCont: row.FisaCont}
		if row.ContCorespondent != "" {
			cont := row.ContCorespondent
			result.ContCorespondent = &cont
		}
		if debit, ok := formula.Evaluate(row.DebitFormula, vars).Float(); ok {
			result.Debit = debit
		}
		if credit, ok := formula.Evaluate(row.CreditFormula, vars).Float(); ok {
			result.Credit = credit
		}
		if valuta, ok := formula.Evaluate(row.ValutaFormula, vars).Float(); ok {
			result.Valuta = &valuta
		}
		if moneda, ok := formula.Evaluate(row.MonedaValutaFormula, vars).Text(); ok {
			result.MonedaValuta = &moneda
		}
		results = append(results, result)
	}
	return results
}

// Entry converts the result into a ledger entry for a transaction. A zero
// foreign amount is recorded as absent.
func (r EntryResult) Entry(transactionID int64) AccountFileEntry {
	entry := AccountFileEntry{
		TransactionID:    transactionID,
		FisaCont:         r.FisaCont,
		ContCorespondent: r.ContCorespondent,
		Debit:            decimal.NewFromFloat(r.Debit),
		Credit:           decimal.NewFromFloat(r.Credit),
		MonedaValuta:     r.MonedaValuta,
	}
	if r.Valuta != nil && *r.Valuta != 0 {
		valuta := decimal.NewFromFloat(*r.Valuta)
		entry.Valuta = &valuta
	}
	return entry
}

// UnresolvedVariables lists the names referenced by the rows that vars does
// not define. They evaluate as zero, so callers surface them as warnings.
func UnresolvedVariables(rows []Row, vars formula.Vars) []string {
	seen := map[string]struct{}{}
	var missing []string
	for _, row := range rows {
		for _, src := range []string{row.DebitFormula, row.CreditFormula, row.ValutaFormula, row.MonedaValutaFormula} {
			for _, name := range formula.References(src) {
				if _, ok := seen[name]; ok {
					continue
				}
				seen[name] = struct{}{}
				if _, ok := vars.Lookup(strings.Split(name, ".")); !ok {
					missing = append(missing, name)
				}
			}
		}
	}
	return missing
}
