package tac

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"salarizare/internal/domain/formula"
	"salarizare/internal/platform/logger"
	"salarizare/internal/platform/metrics"
)

type Service struct {
	store   StoreAPI
	metrics *metrics.Collector
	log     zerolog.Logger
	now     func() time.Time
}

func NewService(store StoreAPI, collector *metrics.Collector) *Service {
	return &Service{
		store:   store,
		metrics: collector,
		log:     logger.WithComponent("tac"),
		now:     time.Now,
	}
}

// RowIssue points at a formula that does not parse.
type RowIssue struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// CheckRows reports formulas that would always evaluate to null.
func CheckRows(rows []Row) []RowIssue {
	var issues []RowIssue
	for i, row := range rows {
		fields := []struct {
			name string
			src  string
		}{
			{"debitFormula", row.DebitFormula},
			{"creditFormula", row.CreditFormula},
			{"valutaFormula", row.ValutaFormula},
			{"monedaValutaFormula", row.MonedaValutaFormula},
		}
		for _, field := range fields {
			if err := formula.Validate(field.src); err != nil {
				issues = append(issues, RowIssue{Row: i, Field: field.name, Message: err.Error()})
			}
		}
	}
	return issues
}

func normalizeTAC(t TAC) (TAC, error) {
	t.Name = strings.TrimSpace(t.Name)
	t.Description = strings.TrimSpace(t.Description)
	if t.Name == "" {
		return TAC{}, ErrTACNameRequired
	}
	rows := make([]Row, 0, len(t.Rows))
	for i, row := range t.Rows {
		row.FisaCont = strings.TrimSpace(row.FisaCont)
		row.ContCorespondent = strings.TrimSpace(row.ContCorespondent)
		if row.FisaCont == "" {
			return TAC{}, fmt.Errorf("row %d: %w", i, ErrFisaContRequired)
		}
		row.Order = i
		rows = append(rows, row)
	}
	t.Rows = rows
	return t, nil
}

func (s *Service) ListTACs(ctx context.Context) ([]TAC, error) {
	return s.store.ListTACs(ctx)
}

func (s *Service) GetTAC(ctx context.Context, id int64) (TAC, error) {
	return s.store.GetTAC(ctx, id)
}

func (s *Service) GetTACByName(ctx context.Context, name string) (TAC, error) {
	return s.store.GetTACByName(ctx, strings.TrimSpace(name))
}

func (s *Service) CreateTAC(ctx context.Context, t TAC) (int64, error) {
	t, err := normalizeTAC(t)
	if err != nil {
		return 0, err
	}
	id, err := s.store.CreateTAC(ctx, t)
	if err != nil {
		return 0, err
	}
	s.log.Info().Int64("tacId", id).Str("name", t.Name).Int("rows", len(t.Rows)).Msg("tac created")
	return id, nil
}

// UpdateTAC replaces the header and the full row list. Entries generated
// earlier are left untouched until their transactions are re-applied.
func (s *Service) UpdateTAC(ctx context.Context, t TAC) error {
	t, err := normalizeTAC(t)
	if err != nil {
		return err
	}
	return s.store.UpdateTAC(ctx, t)
}

func (s *Service) DeleteTAC(ctx context.Context, id int64) error {
	return s.store.DeleteTAC(ctx, id)
}

func (s *Service) ListTransactions(ctx context.Context) ([]Transaction, error) {
	return s.store.ListTransactions(ctx)
}

func (s *Service) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

func (s *Service) DeleteTransaction(ctx context.Context, id int64) error {
	return s.store.DeleteTransaction(ctx, id)
}

func (s *Service) ListEntries(ctx context.Context, transactionID *int64) ([]AccountFileEntry, error) {
	return s.store.ListEntries(ctx, transactionID)
}

// CreateTransaction stores the transaction and, when it is bound to a TAC,
// generates its ledger entries.
func (s *Service) CreateTransaction(ctx context.Context, in TransactionInput) (ApplyReport, error) {
	reports, err := s.CreateTransactions(ctx, []TransactionInput{in})
	if err != nil {
		return ApplyReport{}, err
	}
	return reports[0], nil
}

func (s *Service) CreateTransactions(ctx context.Context, inputs []TransactionInput) ([]ApplyReport, error) {
	transactions := make([]Transaction, 0, len(inputs))
	for _, in := range inputs {
		if in.TransactionDate.IsZero() {
			return nil, ErrTransactionDate
		}
		transactions = append(transactions, Transaction{
			TACID:           in.TACID,
			TransactionDate: in.TransactionDate,
			Description:     strings.TrimSpace(in.Description),
			Variables:       in.Variables,
		})
	}

	ids, err := s.store.CreateTransactions(ctx, transactions)
	if err != nil {
		return nil, err
	}

	reports := make([]ApplyReport, 0, len(ids))
	for i, id := range ids {
		t := transactions[i]
		t.ID = id
		report := ApplyReport{TransactionID: id}
		if t.TACID != nil {
			report, err = s.apply(ctx, t)
			if err != nil {
				return nil, err
			}
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// Reapply regenerates the ledger entries of a stored transaction from the
// current definition of its TAC.
func (s *Service) Reapply(ctx context.Context, transactionID int64) (ApplyReport, error) {
	t, err := s.store.GetTransaction(ctx, transactionID)
	if err != nil {
		return ApplyReport{}, err
	}
	if t.TACID == nil {
		if err := s.store.ReplaceEntries(ctx, t.ID, nil); err != nil {
			return ApplyReport{}, err
		}
		return ApplyReport{TransactionID: t.ID}, nil
	}
	return s.apply(ctx, t)
}

func (s *Service) apply(ctx context.Context, t Transaction) (ApplyReport, error) {
	template, err := s.store.GetTAC(ctx, *t.TACID)
	if errors.Is(err, ErrTACNotFound) {
		s.log.Warn().Int64("transactionId", t.ID).Int64("tacId", *t.TACID).Msg("transaction references a missing tac")
		return ApplyReport{TransactionID: t.ID}, nil
	}
	if err != nil {
		return ApplyReport{}, err
	}

	results := Apply(template.Rows, t.Variables)
	entries := make([]AccountFileEntry, 0, len(results))
	for _, result := range results {
		entries = append(entries, result.Entry(t.ID))
	}
	if err := s.store.ReplaceEntries(ctx, t.ID, entries); err != nil {
		return ApplyReport{}, fmt.Errorf("store entries of transaction %d: %w", t.ID, err)
	}

	unresolved := UnresolvedVariables(template.Rows, t.Variables)
	if len(unresolved) > 0 {
		s.log.Debug().Int64("transactionId", t.ID).Strs("variables", unresolved).Msg("formulas reference undefined variables")
	}
	s.metrics.AddLedgerEntries(len(entries))
	return ApplyReport{TransactionID: t.ID, Entries: entries, Unresolved: unresolved}, nil
}

// SeedSamples records the demo transactions when the journal is still empty.
// It returns how many transactions were stored.
func (s *Service) SeedSamples(ctx context.Context) (int, error) {
	count, err := s.store.CountTransactions(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	tacs, err := s.store.ListTACs(ctx)
	if err != nil {
		return 0, err
	}
	byName := make(map[string]int64, len(tacs))
	for _, t := range tacs {
		byName[t.Name] = t.ID
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	transactions := make([]Transaction, 0, len(sampleTransactions))
	for _, sample := range sampleTransactions {
		t := Transaction{
			TransactionDate: today,
			Description:     sample.DocID + " - " + sample.Description,
			Variables:       sample.variables(),
		}
		if id, ok := byName[sample.TACName]; ok {
			t.TACID = &id
		}
		transactions = append(transactions, t)
	}
	ids, err := s.store.CreateTransactions(ctx, transactions)
	if err != nil {
		return 0, err
	}
	s.log.Info().Int("count", len(ids)).Msg("sample transactions seeded")
	return len(ids), nil
}
