// Package payroll computes the monthly salary chain of an employee from the
// legal settings and the working-day calendar.
package payroll

import (
	"math"

	"salarizare/internal/domain/employee"
	"salarizare/internal/domain/settings"
	"salarizare/internal/domain/workingdays"
)

// scutireThreshold is the gross income up to which the tax-exempt amount
// applies.
const scutireThreshold = 4300

// Result is the full payroll chain for one employee and month. Amounts are
// whole lei except ZileLucrate and VenitPtCalculDeducere.
type Result struct {
	ZileLucrate                     float64  `json:"zileLucrate"`
	SalBrutCfZileLucrate            float64  `json:"salBrutCfZileLucrate"`
	IndemCOMedical                  float64  `json:"indemCOMedical"`
	IndemCOOdihna                   float64  `json:"indemCOOdihna"`
	TotalVenituriBrute              float64  `json:"totalVenituriBrute"`
	ScutireDeTaxe                   float64  `json:"scutireDeTaxe"`
	BazaDeCalculContributii         float64  `json:"bazaDeCalculContributii"`
	CAS                             float64  `json:"cas"`
	CASS                            float64  `json:"cass"`
	CAM                             float64  `json:"cam"`
	TicheteDeMasa                   float64  `json:"ticheteDeMasa"`
	CASSTicheteDeMasa               float64  `json:"cassTicheteDeMasa"`
	CASSInclTichete                 float64  `json:"cassInclTichete"`
	VenitImpozabilInainteDeDeduceri float64  `json:"venitImpozabilInainteDeDeduceri"`
	VenitPtCalculDeducere           float64  `json:"venitPtCalculDeducere"`
	DeducereProcent                 *float64 `json:"deducereProcent"`
	DeducerePersonala               float64  `json:"deducerePersonala"`
	DeducereMinori                  float64  `json:"deducereMinori"`
	DeducerePentruTineri            float64  `json:"deducerePentruTineri"`
	VenitImpozabilDupaDeduceri      float64  `json:"venitImpozabilDupaDeduceri"`
	ImpozitPeVenit                  float64  `json:"impozitPeVenit"`
	SalariuNet                      float64  `json:"salariuNet"`
}

// Calculate runs the payroll chain. workingDays is the calendar value for the
// month; zero or less means the month is unknown and no salary is due for
// days worked. Rounding is half away from zero and happens at each step, later
// steps consume the rounded figures.
func Calculate(emp employee.Employee, vals settings.Values, workingDays int) Result {
	var r Result
	wd := float64(workingDays)
	medicalDays := employee.Float(emp.ZileCOMedical)
	restDays := employee.Float(emp.ZileCOOdihna)

	if workingDays > 0 {
		r.ZileLucrate = workingdays.DaysWorked(wd, medicalDays, restDays)
		salariuCIM := employee.FloatOr(emp.SalariuCIM, vals.SalariuCIM)
		r.SalBrutCfZileLucrate = math.Round(salariuCIM * (r.ZileLucrate / wd))
	}

	r.IndemCOMedical = math.Round(medicalDays * employee.Float(emp.IndemnizatieZiCOMedical))
	r.IndemCOOdihna = math.Round(restDays * employee.Float(emp.IndemnizatieZiCOOdihna))
	r.TotalVenituriBrute = r.SalBrutCfZileLucrate + r.IndemCOMedical + r.IndemCOOdihna

	primary := emp.Primary()
	r.ScutireDeTaxe = scutireDeTaxe(primary, r.TotalVenituriBrute, vals.SumaScutita)
	r.BazaDeCalculContributii = math.Round(r.TotalVenituriBrute - r.ScutireDeTaxe)

	r.CAS = math.Round(r.BazaDeCalculContributii * vals.CAS)
	r.CASS = math.Round(r.BazaDeCalculContributii * vals.CASS)
	r.CAM = math.Round(r.BazaDeCalculContributii * vals.CAM)

	// The deduction income adds the meal tickets before rounding.
	var tichete float64
	if emp.HasTichete() && r.ZileLucrate > 0 {
		tichete = r.ZileLucrate * employee.FloatOr(emp.ValoareTichetDeMasa, vals.TichetDeMasa)
	}
	r.TicheteDeMasa = math.Round(tichete)
	r.CASSTicheteDeMasa = math.Round(r.TicheteDeMasa * vals.CASS)
	r.CASSInclTichete = r.CASS + r.CASSTicheteDeMasa

	r.VenitImpozabilInainteDeDeduceri = r.BazaDeCalculContributii - r.CAS - r.CASS - r.CASSTicheteDeMasa + r.TicheteDeMasa

	r.VenitPtCalculDeducere = r.TotalVenituriBrute + tichete
	if pct, ok := LookupDeduction(r.VenitPtCalculDeducere, emp.PersoaneIntretinere); ok {
		r.DeducereProcent = &pct
		if primary {
			r.DeducerePersonala = math.Round(pct / 100 * vals.SalariulMinim)
		}
	}
	if primary {
		r.DeducereMinori = math.Round(float64(emp.DinCareMinori) * vals.DeducereMinor)
		if emp.Varsta < 26 {
			r.DeducerePentruTineri = math.Round(vals.DeducereTineri)
		}
	}

	r.VenitImpozabilDupaDeduceri = r.VenitImpozabilInainteDeDeduceri - r.DeducerePersonala - r.DeducereMinori - r.DeducerePentruTineri
	r.ImpozitPeVenit = math.Round(r.VenitImpozabilDupaDeduceri * vals.CotaImpozit)
	r.SalariuNet = r.TotalVenituriBrute - r.CAS - r.CASS - r.ImpozitPeVenit - r.CASSTicheteDeMasa
	return r
}

// scutireDeTaxe is the exempt amount: only on the main job and only up to
// the threshold, inclusive.
func scutireDeTaxe(primary bool, totalBrut, sumaScutita float64) float64 {
	if !primary || totalBrut > scutireThreshold {
		return 0
	}
	return sumaScutita
}

// DerivedFields are the three figures cached on the employee record.
type DerivedFields struct {
	SalBrutCfZileLucrateRounded *float64 `json:"salBrutCfZileLucrateRounded"`
	IndemCOMedicalRounded       float64  `json:"indemCOMedicalRounded"`
	IndemCOOdihnaRounded        float64  `json:"indemCOOdihnaRounded"`
}

// Derive computes the cached fields. The gross-by-days figure is absent when
// the month has no working-day count.
func Derive(emp employee.Employee, vals settings.Values, workingDays int) DerivedFields {
	r := Calculate(emp, vals, workingDays)
	out := DerivedFields{
		IndemCOMedicalRounded: r.IndemCOMedical,
		IndemCOOdihnaRounded:  r.IndemCOOdihna,
	}
	if workingDays > 0 {
		out.SalBrutCfZileLucrateRounded = employee.Ptr(r.SalBrutCfZileLucrate)
	}
	return out
}

// Apply returns emp with its cached fields replaced by d.
func (d DerivedFields) Apply(emp employee.Employee) employee.Employee {
	emp.SalBrutCfZileLucrateRounded = nil
	if d.SalBrutCfZileLucrateRounded != nil {
		emp.SalBrutCfZileLucrateRounded = employee.Ptr(*d.SalBrutCfZileLucrateRounded)
	}
	emp.IndemCOMedicalRounded = employee.Ptr(d.IndemCOMedicalRounded)
	emp.IndemCOOdihnaRounded = employee.Ptr(d.IndemCOOdihnaRounded)
	return emp
}

// Totals sums the money columns of a breakdown.
type Totals struct {
	TotalVenituriBrute float64 `json:"totalVenituriBrute"`
	CAS                float64 `json:"cas"`
	CASS               float64 `json:"cass"`
	CAM                float64 `json:"cam"`
	TicheteDeMasa      float64 `json:"ticheteDeMasa"`
	CASSTicheteDeMasa  float64 `json:"cassTicheteDeMasa"`
	ImpozitPeVenit     float64 `json:"impozitPeVenit"`
	SalariuNet         float64 `json:"salariuNet"`
}

func (t *Totals) add(r Result) {
	t.TotalVenituriBrute += r.TotalVenituriBrute
	t.CAS += r.CAS
	t.CASS += r.CASS
	t.CAM += r.CAM
	t.TicheteDeMasa += r.TicheteDeMasa
	t.CASSTicheteDeMasa += r.CASSTicheteDeMasa
	t.ImpozitPeVenit += r.ImpozitPeVenit
	t.SalariuNet += r.SalariuNet
}
