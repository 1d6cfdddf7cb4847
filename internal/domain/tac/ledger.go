package tac

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/shopspring/decimal"
)

// LedgerTotals sums the debit and credit side of a set of entries.
type LedgerTotals struct {
	Debit  decimal.Decimal `json:"debit"`
	Credit decimal.Decimal `json:"credit"`
}

func Totals(entries []AccountFileEntry) LedgerTotals {
	totals := LedgerTotals{Debit: decimal.Zero, Credit: decimal.Zero}
	for _, e := range entries {
		totals.Debit = totals.Debit.Add(e.Debit)
		totals.Credit = totals.Credit.Add(e.Credit)
	}
	return totals
}

// WriteLedgerCSV renders entries one per line followed by a totals line.
func WriteLedgerCSV(w io.Writer, entries []AccountFileEntry) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"transaction_id", "fisa_cont", "cont_corespondent", "debit", "credit", "valuta", "moneda_valuta"}); err != nil {
		return err
	}
	for _, e := range entries {
		record := []string{
			strconv.FormatInt(e.TransactionID, 10),
			e.FisaCont,
			deref(e.ContCorespondent),
			e.Debit.StringFixed(2),
			e.Credit.StringFixed(2),
			"",
			deref(e.MonedaValuta),
		}
		if e.Valuta != nil {
			record[5] = e.Valuta.StringFixed(2)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	totals := Totals(entries)
	if err := writer.Write([]string{"", "TOTAL", "", totals.Debit.StringFixed(2), totals.Credit.StringFixed(2), "", ""}); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
