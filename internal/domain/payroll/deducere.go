package payroll

// DeductionRow is one income band of the personal deduction table with the
// percentage granted for 0, 1, 2, 3 and 4+ dependents.
type DeductionRow struct {
	Row             int     `json:"row"`
	From            float64 `json:"from"`
	To              float64 `json:"to"`
	Dependents0     float64 `json:"dependents0"`
	Dependents1     float64 `json:"dependents1"`
	Dependents2     float64 `json:"dependents2"`
	Dependents3     float64 `json:"dependents3"`
	Dependents4Plus float64 `json:"dependents4Plus"`
}

// DeductionTable is the generated grid of OUG 16/2022 personal deductions.
type DeductionTable []DeductionRow

const (
	deductionBands     = 41
	deductionFirstRow  = 4
	deductionMinIncome = 1
	deductionMinWage   = 4050
	deductionBandWidth = 50
	deductionBandStep  = 0.5
)

var deductionTierBases = [5]float64{20, 25, 30, 35, 45}

// NewDeductionTable builds the table: the first band covers incomes up to the
// minimum wage, each later band is 50 lei wide and loses half a percentage
// point per band, never going below zero.
func NewDeductionTable() DeductionTable {
	table := make(DeductionTable, 0, deductionBands)
	for i := 0; i < deductionBands; i++ {
		from := float64(deductionMinIncome)
		if i > 0 {
			from = float64(deductionMinWage + (i-1)*deductionBandWidth + 1)
		}
		drop := float64(i) * deductionBandStep
		table = append(table, DeductionRow{
			Row:             i + deductionFirstRow,
			From:            from,
			To:              float64(deductionMinWage + i*deductionBandWidth),
			Dependents0:     max(0, deductionTierBases[0]-drop),
			Dependents1:     max(0, deductionTierBases[1]-drop),
			Dependents2:     max(0, deductionTierBases[2]-drop),
			Dependents3:     max(0, deductionTierBases[3]-drop),
			Dependents4Plus: max(0, deductionTierBases[4]-drop),
		})
	}
	return table
}

func (r DeductionRow) percentage(dependents int) float64 {
	switch {
	case dependents <= 0:
		return r.Dependents0
	case dependents == 1:
		return r.Dependents1
	case dependents == 2:
		return r.Dependents2
	case dependents == 3:
		return r.Dependents3
	default:
		return r.Dependents4Plus
	}
}

// Lookup returns the deduction percentage for the income and dependents. The
// second result is false when the income falls outside every band or the
// percentage has decayed to zero.
func (t DeductionTable) Lookup(income float64, dependents int) (float64, bool) {
	for _, row := range t {
		if income < row.From || income > row.To {
			continue
		}
		pct := row.percentage(dependents)
		if pct <= 0 {
			return 0, false
		}
		return pct, true
	}
	return 0, false
}

var deductions = NewDeductionTable()

// Deductions returns a copy of the deduction table used by Calculate.
func Deductions() DeductionTable {
	out := make(DeductionTable, len(deductions))
	copy(out, deductions)
	return out
}

// LookupDeduction looks up the built-in table.
func LookupDeduction(income float64, dependents int) (float64, bool) {
	return deductions.Lookup(income, dependents)
}
