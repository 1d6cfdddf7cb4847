package payroll

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/shopspring/decimal"
)

var registerHeader = []string{
	"unique_id", "nume", "companie", "zile_lucrate", "total_venituri_brute",
	"scutire_de_taxe", "baza_contributii", "cas", "cass", "tichete_de_masa",
	"cass_tichete", "deducere_personala", "deducere_minori", "deducere_tineri",
	"impozit", "salariu_net", "cam",
}

func amount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// WriteRegisterCSV renders the breakdown as a payroll register with a totals
// row.
func WriteRegisterCSV(w io.Writer, b Breakdown) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(registerHeader); err != nil {
		return err
	}
	for _, line := range b.Lines {
		r := line.Result
		record := []string{
			line.UniqueID, line.Nume, line.Companie,
			strconv.FormatFloat(r.ZileLucrate, 'f', -1, 64),
			amount(r.TotalVenituriBrute), amount(r.ScutireDeTaxe), amount(r.BazaDeCalculContributii),
			amount(r.CAS), amount(r.CASS), amount(r.TicheteDeMasa), amount(r.CASSTicheteDeMasa),
			amount(r.DeducerePersonala), amount(r.DeducereMinori), amount(r.DeducerePentruTineri),
			amount(r.ImpozitPeVenit), amount(r.SalariuNet), amount(r.CAM),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	t := b.Totals
	if err := writer.Write([]string{
		"TOTAL", "", "", "",
		amount(t.TotalVenituriBrute), "", "",
		amount(t.CAS), amount(t.CASS), amount(t.TicheteDeMasa), amount(t.CASSTicheteDeMasa),
		"", "", "",
		amount(t.ImpozitPeVenit), amount(t.SalariuNet), amount(t.CAM),
	}); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}
