package employee

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Field names accepted by ApplyEdit. They match the JSON names.
const (
	FieldNume                    = "nume"
	FieldCompanie                = "companie"
	FieldPrincipalLocMunca       = "principalLocMunca"
	FieldPersoaneIntretinere     = "persoaneIntretinere"
	FieldDinCareMinori           = "dinCareMinori"
	FieldVarsta                  = "varsta"
	FieldValoareTichetDeMasa     = "valoareTichetDeMasa"
	FieldZileCOMedical           = "zileCOMedical"
	FieldIndemnizatieZiCOMedical = "indemnizatieZiCOMedical"
	FieldZileCOOdihna            = "zileCOOdihna"
	FieldIndemnizatieZiCOOdihna  = "indemnizatieZiCOOdihna"
	FieldSalariuCIM              = "salariuCIM"
)

// EditDefaults carries the allowances filled in when leave days are entered.
// A nil allowance leaves the current one untouched.
type EditDefaults struct {
	IndemnizatieCOMedical *float64
	IndemnizatieCOOdihna  *float64
}

// parseInt mirrors a lenient integer parse: leading digits count, anything
// unparsable is 0.
func parseInt(raw string) int {
	raw = strings.TrimSpace(raw)
	end := 0
	for end < len(raw) && (raw[end] >= '0' && raw[end] <= '9' || end == 0 && (raw[end] == '-' || raw[end] == '+')) {
		end++
	}
	n, err := strconv.Atoi(raw[:end])
	if err != nil {
		return 0
	}
	return n
}

// parseFloat accepts the longest numeric prefix; blank or unparsable is 0.
func parseFloat(raw string) float64 {
	raw = strings.TrimSpace(raw)
	for end := len(raw); end > 0; end-- {
		v, err := strconv.ParseFloat(raw[:end], 64)
		if err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
			return v
		}
	}
	return 0
}

// ApplyEdit sets one grid cell from its raw text and applies the linked rules:
// a positive meal-ticket value enables tichete, anything else disables them
// and zeroes the value; zero leave days clear the daily allowance, other
// values fill in the default allowance. Cached payroll fields are not touched.
func ApplyEdit(e Employee, field, raw string, defaults EditDefaults) (Employee, error) {
	switch field {
	case FieldNume:
		e.Nume = strings.TrimSpace(raw)
	case FieldCompanie:
		e.Companie = strings.TrimSpace(raw)
	case FieldPrincipalLocMunca:
		if strings.TrimSpace(raw) == "" {
			return e, fmt.Errorf("%s: %w", field, ErrInvalidValue)
		}
		flag, err := NormalizeFlag(raw)
		if err != nil {
			return e, fmt.Errorf("%s: %w", field, err)
		}
		e.PrincipalLocMunca = flag
	case FieldPersoaneIntretinere, FieldDinCareMinori:
		n := parseInt(raw)
		if n < 0 {
			return e, fmt.Errorf("%s cannot be negative: %w", field, ErrInvalidValue)
		}
		if field == FieldPersoaneIntretinere {
			e.PersoaneIntretinere = n
		} else {
			e.DinCareMinori = n
		}
	case FieldVarsta:
		e.Varsta = parseInt(raw)
	case FieldValoareTichetDeMasa:
		value := parseFloat(raw)
		if value > 0 {
			e.TicheteDeMasa = Da
			e.ValoareTichetDeMasa = Ptr(value)
		} else {
			e.TicheteDeMasa = Nu
			e.ValoareTichetDeMasa = Ptr(0)
		}
	case FieldZileCOMedical:
		days := parseFloat(raw)
		e.ZileCOMedical = Ptr(days)
		if days == 0 {
			e.IndemnizatieZiCOMedical = Ptr(0)
		} else if defaults.IndemnizatieCOMedical != nil {
			e.IndemnizatieZiCOMedical = Ptr(*defaults.IndemnizatieCOMedical)
		}
	case FieldIndemnizatieZiCOMedical:
		e.IndemnizatieZiCOMedical = Ptr(parseFloat(raw))
	case FieldZileCOOdihna:
		days := parseFloat(raw)
		e.ZileCOOdihna = Ptr(days)
		if days == 0 {
			e.IndemnizatieZiCOOdihna = Ptr(0)
		} else if defaults.IndemnizatieCOOdihna != nil {
			e.IndemnizatieZiCOOdihna = Ptr(*defaults.IndemnizatieCOOdihna)
		}
	case FieldIndemnizatieZiCOOdihna:
		e.IndemnizatieZiCOOdihna = Ptr(parseFloat(raw))
	case FieldSalariuCIM:
		e.SalariuCIM = Ptr(parseFloat(raw))
	default:
		return e, fmt.Errorf("%q: %w", field, ErrUnknownField)
	}
	return e, nil
}
