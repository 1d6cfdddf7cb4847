package payroll

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"salarizare/internal/domain/employee"
	"salarizare/internal/domain/settings"
	"salarizare/internal/platform/logger"
	"salarizare/internal/platform/metrics"
	"salarizare/internal/platform/storage"
)

var ErrInvalidPeriod = errors.New("invalid payroll period")

// Period is a calendar month.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func (p Period) Validate() error {
	if p.Year < 1000 || p.Year > 9999 || p.Month < 1 || p.Month > 12 {
		return ErrInvalidPeriod
	}
	return nil
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// SettingsSource provides the current legal values.
type SettingsSource interface {
	Values(ctx context.Context) (settings.Values, error)
}

// Calendar provides the working-day count of a month.
type Calendar interface {
	DaysFor(ctx context.Context, year, month int) (int, bool, error)
}

// Service owns every write of employee records so the cached payroll fields
// always match the raw inputs, the settings and the current month.
type Service struct {
	employees employee.StoreAPI
	settings  SettingsSource
	calendar  Calendar
	files     storage.Store
	metrics   *metrics.Collector
	log       zerolog.Logger
	now       func() time.Time
}

func NewService(employees employee.StoreAPI, settingsSource SettingsSource, calendar Calendar, files storage.Store, collector *metrics.Collector) *Service {
	return &Service{
		employees: employees,
		settings:  settingsSource,
		calendar:  calendar,
		files:     files,
		metrics:   collector,
		log:       logger.WithComponent("payroll"),
		now:       time.Now,
	}
}

// CurrentPeriod is the month whose values are cached on employee records.
func (s *Service) CurrentPeriod() Period {
	return PeriodOf(s.now())
}

type inputs struct {
	values      settings.Values
	workingDays int
}

func (s *Service) load(ctx context.Context, p Period) (inputs, error) {
	vals, err := s.settings.Values(ctx)
	if err != nil {
		return inputs{}, fmt.Errorf("load settings: %w", err)
	}
	days, _, err := s.calendar.DaysFor(ctx, p.Year, p.Month)
	if err != nil {
		return inputs{}, fmt.Errorf("load working days: %w", err)
	}
	return inputs{values: vals, workingDays: days}, nil
}

func (in inputs) derive(emp employee.Employee) employee.Employee {
	return Derive(emp, in.values, in.workingDays).Apply(emp)
}

func (s *Service) ListEmployees(ctx context.Context) ([]employee.Employee, error) {
	return s.employees.List(ctx)
}

func (s *Service) GetEmployee(ctx context.Context, id int64) (employee.Employee, error) {
	return s.employees.Get(ctx, id)
}

// Recompute refreshes the cached fields of every employee for the current
// month and stores the collection. It returns the number of employees.
func (s *Service) Recompute(ctx context.Context) (int, error) {
	period := s.CurrentPeriod()
	in, err := s.load(ctx, period)
	if err != nil {
		return 0, err
	}
	list, err := s.employees.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(list) == 0 {
		return 0, nil
	}
	for i := range list {
		list[i] = in.derive(list[i])
	}
	if err := s.employees.ReplaceAll(ctx, list); err != nil {
		return 0, err
	}
	s.metrics.IncRecompute()
	s.log.Info().Str("period", period.String()).Int("workingDays", in.workingDays).Int("employees", len(list)).Msg("employee payroll fields recomputed")
	return len(list), nil
}

// SaveEmployees replaces the whole collection after deriving cached fields.
func (s *Service) SaveEmployees(ctx context.Context, list []employee.Employee) ([]employee.Employee, error) {
	in, err := s.load(ctx, s.CurrentPeriod())
	if err != nil {
		return nil, err
	}
	out := make([]employee.Employee, 0, len(list))
	for _, emp := range list {
		emp.Nume = strings.TrimSpace(emp.Nume)
		if emp.Nume == "" {
			return nil, fmt.Errorf("employee %d: %w", emp.ID, employee.ErrNameRequired)
		}
		if err := emp.Validate(); err != nil {
			return nil, fmt.Errorf("employee %d: %w", emp.ID, err)
		}
		emp.PrincipalLocMunca, _ = employee.NormalizeFlag(emp.PrincipalLocMunca)
		out = append(out, in.derive(emp))
	}
	if err := s.employees.ReplaceAll(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddEmployee assigns the next id and label, fills the grid defaults and
// stores the employee.
func (s *Service) AddEmployee(ctx context.Context, emp employee.Employee) (employee.Employee, error) {
	emp.Nume = strings.TrimSpace(emp.Nume)
	emp.Companie = strings.TrimSpace(emp.Companie)
	if emp.Nume == "" {
		return employee.Employee{}, employee.ErrNameRequired
	}
	existing, err := s.employees.List(ctx)
	if err != nil {
		return employee.Employee{}, err
	}
	emp.ID, emp.UniqueID = employee.NextIdentity(existing)

	if err := emp.Validate(); err != nil {
		return employee.Employee{}, err
	}
	emp.PrincipalLocMunca, _ = employee.NormalizeFlag(emp.PrincipalLocMunca)
	if emp.HasTichete() {
		emp.TicheteDeMasa = employee.Da
	} else {
		emp.TicheteDeMasa = employee.Nu
		emp.ValoareTichetDeMasa = nil
	}

	in, err := s.load(ctx, s.CurrentPeriod())
	if err != nil {
		return employee.Employee{}, err
	}
	emp = in.derive(emp)
	if err := s.employees.Add(ctx, emp); err != nil {
		return employee.Employee{}, err
	}
	s.log.Info().Int64("employeeId", emp.ID).Str("uniqueId", emp.UniqueID).Msg("employee added")
	return emp, nil
}

// EditEmployee applies one cell edit and stores the updated employee.
func (s *Service) EditEmployee(ctx context.Context, id int64, field, raw string) (employee.Employee, error) {
	emp, err := s.employees.Get(ctx, id)
	if err != nil {
		return employee.Employee{}, err
	}
	in, err := s.load(ctx, s.CurrentPeriod())
	if err != nil {
		return employee.Employee{}, err
	}
	emp, err = employee.ApplyEdit(emp, field, raw, employee.EditDefaults{
		IndemnizatieCOMedical: employee.Ptr(in.values.IndemnizatieCOMedical),
		IndemnizatieCOOdihna:  employee.Ptr(in.values.IndemnizatieCOOdihna),
	})
	if err != nil {
		return employee.Employee{}, err
	}
	emp = in.derive(emp)
	if err := s.employees.Update(ctx, emp); err != nil {
		return employee.Employee{}, err
	}
	return emp, nil
}

func (s *Service) RemoveEmployee(ctx context.Context, id int64) error {
	if err := s.employees.Remove(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("employeeId", id).Msg("employee removed")
	return nil
}

// Line is one employee row of a breakdown.
type Line struct {
	EmployeeID int64  `json:"employeeId"`
	UniqueID   string `json:"uniqueId"`
	Nume       string `json:"nume"`
	Companie   string `json:"companie"`
	Result
}

// Breakdown is the payroll of every employee for one month.
type Breakdown struct {
	Period      Period `json:"period"`
	WorkingDays int    `json:"workingDays"`
	Lines       []Line `json:"lines"`
	Totals      Totals `json:"totals"`
}

func (s *Service) Breakdown(ctx context.Context, p Period) (Breakdown, error) {
	if err := p.Validate(); err != nil {
		return Breakdown{}, err
	}
	in, err := s.load(ctx, p)
	if err != nil {
		return Breakdown{}, err
	}
	list, err := s.employees.List(ctx)
	if err != nil {
		return Breakdown{}, err
	}
	out := Breakdown{Period: p, WorkingDays: in.workingDays, Lines: make([]Line, 0, len(list))}
	for _, emp := range list {
		r := Calculate(emp, in.values, in.workingDays)
		out.Lines = append(out.Lines, Line{EmployeeID: emp.ID, UniqueID: emp.DisplayID(), Nume: emp.Nume, Companie: emp.Companie, Result: r})
		out.Totals.add(r)
	}
	s.metrics.AddPayrollComputed(len(list))
	return out, nil
}

// EmployeeResult computes one employee's payroll for the month.
func (s *Service) EmployeeResult(ctx context.Context, id int64, p Period) (employee.Employee, Result, int, error) {
	if err := p.Validate(); err != nil {
		return employee.Employee{}, Result{}, 0, err
	}
	emp, err := s.employees.Get(ctx, id)
	if err != nil {
		return employee.Employee{}, Result{}, 0, err
	}
	in, err := s.load(ctx, p)
	if err != nil {
		return employee.Employee{}, Result{}, 0, err
	}
	s.metrics.AddPayrollComputed(1)
	return emp, Calculate(emp, in.values, in.workingDays), in.workingDays, nil
}
