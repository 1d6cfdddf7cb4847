package payroll

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"salarizare/internal/domain/employee"
	"salarizare/internal/platform/storage"
)

var ErrNoStorage = errors.New("payslip storage is not configured")

type payslipLine struct {
	label string
	value float64
}

func lei(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2) + " lei"
}

// RenderPayslip writes the monthly payslip ("fluturas") of one employee as PDF.
func RenderPayslip(w io.Writer, emp employee.Employee, p Period, workingDays int, r Result) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Fluturas de salariu")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Angajat: %s (%s)", emp.Nume, emp.DisplayID())))
	pdf.Ln(6)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Companie: %s", emp.Companie)))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Luna: %s   Zile lucratoare: %d   Zile lucrate: %s", p, workingDays, decimal.NewFromFloat(r.ZileLucrate).String()))
	pdf.Ln(10)

	sections := []struct {
		title string
		lines []payslipLine
	}{
		{"Venituri", []payslipLine{
			{"Salariu brut cf. zile lucrate", r.SalBrutCfZileLucrate},
			{"Indemnizatie CO medical", r.IndemCOMedical},
			{"Indemnizatie CO odihna", r.IndemCOOdihna},
			{"Total venituri brute", r.TotalVenituriBrute},
			{"Tichete de masa", r.TicheteDeMasa},
		}},
		{"Contributii", []payslipLine{
			{"Scutire de taxe", r.ScutireDeTaxe},
			{"Baza de calcul contributii", r.BazaDeCalculContributii},
			{"CAS", r.CAS},
			{"CASS", r.CASS},
			{"CASS tichete de masa", r.CASSTicheteDeMasa},
		}},
		{"Impozit", []payslipLine{
			{"Venit impozabil inainte de deduceri", r.VenitImpozabilInainteDeDeduceri},
			{"Deducere personala", r.DeducerePersonala},
			{"Deducere minori", r.DeducereMinori},
			{"Deducere tineri sub 26 ani", r.DeducerePentruTineri},
			{"Venit impozabil dupa deduceri", r.VenitImpozabilDupaDeduceri},
			{"Impozit pe venit", r.ImpozitPeVenit},
		}},
	}
	for _, section := range sections {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, section.title)
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		for _, line := range section.lines {
			pdf.CellFormat(110, 6, line.label, "", 0, "L", false, 0, "")
			pdf.CellFormat(50, 6, lei(line.value), "", 1, "R", false, 0, "")
		}
		pdf.Ln(4)
	}

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(110, 8, "Salariu net", "T", 0, "L", false, 0, "")
	pdf.CellFormat(50, 8, lei(r.SalariuNet), "T", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.Ln(4)
	pdf.Cell(0, 5, fmt.Sprintf("CAM datorat de angajator: %s", lei(r.CAM)))

	return pdf.Output(w)
}

func payslipPath(id int64, p Period) string {
	return fmt.Sprintf("payslips/%s/%d.pdf", p, id)
}

// Payslip renders the payslip of one employee into memory.
func (s *Service) Payslip(ctx context.Context, id int64, p Period) ([]byte, employee.Employee, error) {
	emp, r, days, err := s.EmployeeResult(ctx, id, p)
	if err != nil {
		return nil, employee.Employee{}, err
	}
	var buf bytes.Buffer
	if err := RenderPayslip(&buf, emp, p, days, r); err != nil {
		return nil, employee.Employee{}, fmt.Errorf("render payslip: %w", err)
	}
	s.metrics.IncPayslip()
	return buf.Bytes(), emp, nil
}

// ArchivePayslips renders every employee's payslip for the month and saves
// them to the configured storage.
func (s *Service) ArchivePayslips(ctx context.Context, p Period) ([]storage.FileInfo, error) {
	if s.files == nil {
		return nil, ErrNoStorage
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	in, err := s.load(ctx, p)
	if err != nil {
		return nil, err
	}
	list, err := s.employees.List(ctx)
	if err != nil {
		return nil, err
	}

	files := make([]storage.FileInfo, 0, len(list))
	for _, emp := range list {
		var buf bytes.Buffer
		r := Calculate(emp, in.values, in.workingDays)
		if err := RenderPayslip(&buf, emp, p, in.workingDays, r); err != nil {
			return files, fmt.Errorf("render payslip %d: %w", emp.ID, err)
		}
		info, err := s.files.Save(ctx, payslipPath(emp.ID, p), &buf, "application/pdf")
		if err != nil {
			return files, fmt.Errorf("save payslip %d: %w", emp.ID, err)
		}
		s.metrics.IncPayslip()
		files = append(files, *info)
	}
	s.metrics.AddPayrollComputed(len(list))
	s.log.Info().Str("period", p.String()).Int("files", len(files)).Msg("payslips archived")
	return files, nil
}
