package employee

import (
	"errors"
	"testing"
)

func TestNextIdentity(t *testing.T) {
	id, label := NextIdentity(nil)
	if id != 1 || label != "IDS_1" {
		t.Fatalf("expected 1/IDS_1, got %d/%s", id, label)
	}

	existing := []Employee{{ID: 1}, {ID: 7}, {ID: 3}}
	id, label = NextIdentity(existing)
	if id != 8 {
		t.Fatalf("expected id 8, got %d", id)
	}
	if label != "IDS_4" {
		t.Fatalf("expected IDS_4, got %s", label)
	}
}

func TestDisplayID(t *testing.T) {
	if got := (Employee{ID: 5}).DisplayID(); got != "IDS_5" {
		t.Fatalf("expected IDS_5, got %s", got)
	}
	if got := (Employee{ID: 5, UniqueID: "IDS_2"}).DisplayID(); got != "IDS_2" {
		t.Fatalf("expected IDS_2, got %s", got)
	}
}

func TestApplyEditMealTickets(t *testing.T) {
	e := Employee{TicheteDeMasa: Nu}
	e, err := ApplyEdit(e, FieldValoareTichetDeMasa, "35.5", EditDefaults{})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !e.HasTichete() || Float(e.ValoareTichetDeMasa) != 35.5 {
		t.Fatalf("expected tichete enabled at 35.5, got %s %v", e.TicheteDeMasa, Float(e.ValoareTichetDeMasa))
	}

	for _, raw := range []string{"", "  ", "abc", "0", "-5"} {
		got, err := ApplyEdit(e, FieldValoareTichetDeMasa, raw, EditDefaults{})
		if err != nil {
			t.Fatalf("edit %q: %v", raw, err)
		}
		if got.HasTichete() || got.ValoareTichetDeMasa == nil || *got.ValoareTichetDeMasa != 0 {
			t.Fatalf("%q: expected tichete disabled and zero, got %s %v", raw, got.TicheteDeMasa, got.ValoareTichetDeMasa)
		}
	}
}

func TestApplyEditLeaveDays(t *testing.T) {
	defaults := EditDefaults{IndemnizatieCOMedical: Ptr(120), IndemnizatieCOOdihna: Ptr(150)}
	e := Employee{IndemnizatieZiCOMedical: Ptr(90)}

	e, _ = ApplyEdit(e, FieldZileCOMedical, "3", defaults)
	if Float(e.ZileCOMedical) != 3 || Float(e.IndemnizatieZiCOMedical) != 120 {
		t.Fatalf("expected default medical allowance, got %+v", e)
	}
	e, _ = ApplyEdit(e, FieldZileCOMedical, "", defaults)
	if Float(e.ZileCOMedical) != 0 || e.IndemnizatieZiCOMedical == nil || *e.IndemnizatieZiCOMedical != 0 {
		t.Fatalf("expected cleared medical allowance, got %+v", e)
	}

	e, _ = ApplyEdit(e, FieldZileCOOdihna, "2", defaults)
	if Float(e.IndemnizatieZiCOOdihna) != 150 {
		t.Fatalf("expected default rest allowance, got %v", Float(e.IndemnizatieZiCOOdihna))
	}

	e.IndemnizatieZiCOOdihna = Ptr(80)
	e, _ = ApplyEdit(e, FieldZileCOOdihna, "4", EditDefaults{})
	if Float(e.IndemnizatieZiCOOdihna) != 80 {
		t.Fatalf("allowance must stay when no default exists, got %v", Float(e.IndemnizatieZiCOOdihna))
	}
}

func TestApplyEditNumbers(t *testing.T) {
	e, _ := ApplyEdit(Employee{}, FieldVarsta, "25 ani", EditDefaults{})
	if e.Varsta != 25 {
		t.Fatalf("expected 25, got %d", e.Varsta)
	}
	e, _ = ApplyEdit(e, FieldPersoaneIntretinere, "x", EditDefaults{})
	if e.PersoaneIntretinere != 0 {
		t.Fatalf("expected 0, got %d", e.PersoaneIntretinere)
	}
	e, _ = ApplyEdit(e, FieldSalariuCIM, "4500.50", EditDefaults{})
	if Float(e.SalariuCIM) != 4500.5 {
		t.Fatalf("expected 4500.5, got %v", Float(e.SalariuCIM))
	}
	e, _ = ApplyEdit(e, FieldSalariuCIM, "Infinity", EditDefaults{})
	if Float(e.SalariuCIM) != 0 {
		t.Fatalf("expected 0 for non-finite input, got %v", Float(e.SalariuCIM))
	}
	e, _ = ApplyEdit(e, FieldPrincipalLocMunca, " nu ", EditDefaults{})
	if e.Primary() || e.PrincipalLocMunca != Nu {
		t.Fatalf("expected NU, got %q", e.PrincipalLocMunca)
	}
}

func TestApplyEditUnknownField(t *testing.T) {
	if _, err := ApplyEdit(Employee{}, "salBrutCfZileLucrateRounded", "1", EditDefaults{}); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestApplyEditRejectsInvalidPrimaryFlag(t *testing.T) {
	for _, raw := range []string{"maybe", "", "  "} {
		e, err := ApplyEdit(Employee{PrincipalLocMunca: Da}, FieldPrincipalLocMunca, raw, EditDefaults{})
		if !errors.Is(err, ErrInvalidValue) {
			t.Fatalf("%q: expected ErrInvalidValue, got %v", raw, err)
		}
		if e.PrincipalLocMunca != Da || !e.Primary() {
			t.Fatalf("%q: expected flag to stay DA, got %q", raw, e.PrincipalLocMunca)
		}
	}
	e, err := ApplyEdit(Employee{PrincipalLocMunca: Nu}, FieldPrincipalLocMunca, "da", EditDefaults{})
	if err != nil || e.PrincipalLocMunca != Da {
		t.Fatalf("expected DA, got %q %v", e.PrincipalLocMunca, err)
	}
}

func TestApplyEditRejectsNegativeDependents(t *testing.T) {
	for _, field := range []string{FieldPersoaneIntretinere, FieldDinCareMinori} {
		e, err := ApplyEdit(Employee{PersoaneIntretinere: 2, DinCareMinori: 1}, field, "-1", EditDefaults{})
		if !errors.Is(err, ErrInvalidValue) {
			t.Fatalf("%s: expected ErrInvalidValue, got %v", field, err)
		}
		if e.PersoaneIntretinere != 2 || e.DinCareMinori != 1 {
			t.Fatalf("%s: expected counts unchanged, got %+v", field, e)
		}
	}
}

func TestNormalizeFlagAndValidate(t *testing.T) {
	if flag, err := NormalizeFlag(" nu "); err != nil || flag != Nu {
		t.Fatalf("expected NU, got %q %v", flag, err)
	}
	if flag, err := NormalizeFlag(""); err != nil || flag != Da {
		t.Fatalf("expected blank to default to DA, got %q %v", flag, err)
	}
	if err := (Employee{PrincipalLocMunca: "MAYBE"}).Validate(); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
	if err := (Employee{PersoaneIntretinere: -2}).Validate(); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue for negative dependents, got %v", err)
	}
	if err := (Employee{PrincipalLocMunca: "da"}).Validate(); err != nil {
		t.Fatalf("expected valid employee, got %v", err)
	}
}
