package employee

import (
	"errors"
	"fmt"
	"strings"
)

const (
	Da = "DA"
	Nu = "NU"
)

var (
	ErrNotFound     = errors.New("employee not found")
	ErrNameRequired = errors.New("employee name is required")
	ErrUnknownField = errors.New("field cannot be edited")
	ErrInvalidValue = errors.New("invalid field value")
)

// NormalizeFlag accepts DA or NU in any case and returns the canonical form.
// A blank flag defaults to DA.
func NormalizeFlag(raw string) (string, error) {
	switch flag := strings.ToUpper(strings.TrimSpace(raw)); flag {
	case "":
		return Da, nil
	case Da, Nu:
		return flag, nil
	default:
		return "", fmt.Errorf("%q must be %s or %s: %w", raw, Da, Nu, ErrInvalidValue)
	}
}

// Validate checks the fields the payroll chain branches on.
func (e Employee) Validate() error {
	if _, err := NormalizeFlag(e.PrincipalLocMunca); err != nil {
		return fmt.Errorf("principalLocMunca %w", err)
	}
	if e.PersoaneIntretinere < 0 || e.DinCareMinori < 0 {
		return fmt.Errorf("dependents cannot be negative: %w", ErrInvalidValue)
	}
	return nil
}

// Employee is one row of the payroll grid. Nil pointers mean "not set" and fall
// back to the legal defaults when the payroll is computed. The three *Rounded
// fields are cached derived values and are only written by payroll.Derive.
type Employee struct {
	ID                      int64    `json:"id"`
	UniqueID                string   `json:"uniqueId,omitempty"`
	Nume                    string   `json:"nume"`
	Companie                string   `json:"companie"`
	PrincipalLocMunca       string   `json:"principalLocMunca"`
	PersoaneIntretinere     int      `json:"persoaneIntretinere"`
	DinCareMinori           int      `json:"dinCareMinori"`
	Varsta                  int      `json:"varsta"`
	TicheteDeMasa           string   `json:"ticheteDeMasa,omitempty"`
	ValoareTichetDeMasa     *float64 `json:"valoareTichetDeMasa"`
	ZileCOMedical           *float64 `json:"zileCOMedical"`
	IndemnizatieZiCOMedical *float64 `json:"indemnizatieZiCOMedical"`
	ZileCOOdihna            *float64 `json:"zileCOOdihna"`
	IndemnizatieZiCOOdihna  *float64 `json:"indemnizatieZiCOOdihna"`
	SalariuCIM              *float64 `json:"salariuCIM"`

	SalBrutCfZileLucrateRounded *float64 `json:"salBrutCfZileLucrateRounded"`
	IndemCOMedicalRounded       *float64 `json:"indemCOMedicalRounded"`
	IndemCOOdihnaRounded        *float64 `json:"indemCOOdihnaRounded"`
}

// Primary reports whether this is the employee's main job ("funcția de bază").
func (e Employee) Primary() bool {
	return strings.EqualFold(strings.TrimSpace(e.PrincipalLocMunca), Da)
}

// HasTichete reports whether the employee receives meal tickets.
func (e Employee) HasTichete() bool {
	return strings.EqualFold(strings.TrimSpace(e.TicheteDeMasa), Da)
}

func (e Employee) DisplayID() string {
	if e.UniqueID != "" {
		return e.UniqueID
	}
	return uniqueIDPrefix + itoa(e.ID)
}

// Float returns *p, or 0 when p is nil.
func Float(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// FloatOr returns *p, or fallback when p is nil.
func FloatOr(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}

func Ptr(v float64) *float64 {
	return &v
}
