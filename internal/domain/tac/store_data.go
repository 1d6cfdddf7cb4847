package tac

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"salarizare/internal/domain/formula"
)

func (s *Store) ListTACs(ctx context.Context) ([]TAC, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, COALESCE(description, ''), created_at, updated_at
    FROM tacs
    ORDER BY id
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tacs []TAC
	index := map[int64]int{}
	for rows.Next() {
		var t TAC
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		index[t.ID] = len(tacs)
		tacs = append(tacs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	allRows, err := s.listRows(ctx, nil)
	if err != nil {
		return nil, err
	}
	for tacID, tacRows := range allRows {
		if i, ok := index[tacID]; ok {
			tacs[i].Rows = tacRows
		}
	}
	return tacs, nil
}

func (s *Store) GetTAC(ctx context.Context, id int64) (TAC, error) {
	return s.getTAC(ctx, `
    SELECT id, name, COALESCE(description, ''), created_at, updated_at
    FROM tacs
    WHERE id = $1
  `, id)
}

func (s *Store) GetTACByName(ctx context.Context, name string) (TAC, error) {
	return s.getTAC(ctx, `
    SELECT id, name, COALESCE(description, ''), created_at, updated_at
    FROM tacs
    WHERE name = $1
  `, name)
}

func (s *Store) getTAC(ctx context.Context, query string, arg any) (TAC, error) {
	var t TAC
	err := s.DB.QueryRow(ctx, query, arg).Scan(&t.ID, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return TAC{}, ErrTACNotFound
	}
	if err != nil {
		return TAC{}, err
	}
	rowsByTAC, err := s.listRows(ctx, &t.ID)
	if err != nil {
		return TAC{}, err
	}
	t.Rows = rowsByTAC[t.ID]
	return t, nil
}

func (s *Store) listRows(ctx context.Context, tacID *int64) (map[int64][]Row, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, tac_id, fisa_cont, COALESCE(cont_corespondent, ''),
           COALESCE(debit_formula, ''), COALESCE(credit_formula, ''),
           COALESCE(valuta_formula, ''), COALESCE(moneda_valuta_formula, ''), row_order
    FROM tac_rows
    WHERE ($1::bigint IS NULL OR tac_id = $1)
    ORDER BY tac_id, row_order, id
  `, tacID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int64][]Row{}
	for rows.Next() {
		var row Row
		var owner int64
		if err := rows.Scan(&row.ID, &owner, &row.FisaCont, &row.ContCorespondent,
			&row.DebitFormula, &row.CreditFormula, &row.ValutaFormula, &row.MonedaValutaFormula, &row.Order); err != nil {
			return nil, err
		}
		out[owner] = append(out[owner], row)
	}
	return out, rows.Err()
}

func (s *Store) CreateTAC(ctx context.Context, t TAC) (int64, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx, `
    INSERT INTO tacs (name, description)
    VALUES ($1, NULLIF($2, ''))
    RETURNING id
  `, t.Name, t.Description).Scan(&id)
	if err != nil {
		return 0, mapUniqueViolation(err)
	}
	if err := insertRows(ctx, tx, id, t.Rows); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateTAC rewrites the header and replaces every row of the template.
func (s *Store) UpdateTAC(ctx context.Context, t TAC) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
    UPDATE tacs
    SET name = $2, description = NULLIF($3, ''), updated_at = now()
    WHERE id = $1
  `, t.ID, t.Name, t.Description)
	if err != nil {
		return mapUniqueViolation(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTACNotFound
	}
	if _, err := tx.Exec(ctx, `DELETE FROM tac_rows WHERE tac_id = $1`, t.ID); err != nil {
		return err
	}
	if err := insertRows(ctx, tx, t.ID, t.Rows); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertRows(ctx context.Context, tx pgx.Tx, tacID int64, rows []Row) error {
	for i, row := range rows {
		if _, err := tx.Exec(ctx, `
      INSERT INTO tac_rows (tac_id, fisa_cont, cont_corespondent, debit_formula, credit_formula,
                            valuta_formula, moneda_valuta_formula, row_order)
      VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8)
    `, tacID, row.FisaCont, row.ContCorespondent, row.DebitFormula, row.CreditFormula,
			row.ValutaFormula, row.MonedaValutaFormula, i); err != nil {
			return fmt.Errorf("insert tac row %d: %w", i, err)
		}
	}
	return nil
}

func (s *Store) DeleteTAC(ctx context.Context, id int64) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM tacs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTACNotFound
	}
	return nil
}

func (s *Store) CountTransactions(ctx context.Context) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, `SELECT COUNT(1) FROM transactions`).Scan(&count)
	return count, err
}

func (s *Store) ListTransactions(ctx context.Context) ([]Transaction, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, tac_id, transaction_date, COALESCE(description, ''), variables, created_at
    FROM transactions
    ORDER BY transaction_date DESC, id DESC
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT id, tac_id, transaction_date, COALESCE(description, ''), variables, created_at
    FROM transactions
    WHERE id = $1
  `, id)
	t, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrTransactionNotFound
	}
	return t, err
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	var raw []byte
	if err := row.Scan(&t.ID, &t.TACID, &t.TransactionDate, &t.Description, &raw, &t.CreatedAt); err != nil {
		return Transaction{}, err
	}
	t.Variables = formula.Vars{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &t.Variables); err != nil {
			return Transaction{}, fmt.Errorf("decode variables of transaction %d: %w", t.ID, err)
		}
	}
	return t, nil
}

func (s *Store) CreateTransaction(ctx context.Context, t Transaction) (int64, error) {
	ids, err := s.CreateTransactions(ctx, []Transaction{t})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

func (s *Store) CreateTransactions(ctx context.Context, ts []Transaction) ([]int64, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]int64, 0, len(ts))
	for _, t := range ts {
		variables := t.Variables
		if variables == nil {
			variables = formula.Vars{}
		}
		payload, err := json.Marshal(variables)
		if err != nil {
			return nil, err
		}
		var id int64
		if err := tx.QueryRow(ctx, `
      INSERT INTO transactions (tac_id, transaction_date, description, variables)
      VALUES ($1, $2, NULLIF($3, ''), $4)
      RETURNING id
    `, t.TACID, t.TransactionDate, t.Description, payload).Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id int64) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (s *Store) ListEntries(ctx context.Context, transactionID *int64) ([]AccountFileEntry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, transaction_id, fisa_cont, cont_corespondent, debit, credit, valuta, moneda_valuta, created_at
    FROM account_file_entries
    WHERE ($1::bigint IS NULL OR transaction_id = $1)
    ORDER BY fisa_cont ASC, id ASC
  `, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AccountFileEntry
	for rows.Next() {
		var e AccountFileEntry
		var debit, credit, valuta pgtype.Numeric
		if err := rows.Scan(&e.ID, &e.TransactionID, &e.FisaCont, &e.ContCorespondent,
			&debit, &credit, &valuta, &e.MonedaValuta, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Debit = fromNumeric(debit)
		e.Credit = fromNumeric(credit)
		if valuta.Valid {
			v := fromNumeric(valuta)
			e.Valuta = &v
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ReplaceEntries drops whatever a previous application produced for the
// transaction and stores the new batch.
func (s *Store) ReplaceEntries(ctx context.Context, transactionID int64, entries []AccountFileEntry) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM account_file_entries WHERE transaction_id = $1`, transactionID); err != nil {
		return err
	}
	for _, e := range entries {
		valuta := pgtype.Numeric{}
		if e.Valuta != nil {
			valuta = toNumeric(*e.Valuta)
		}
		if _, err := tx.Exec(ctx, `
      INSERT INTO account_file_entries (transaction_id, fisa_cont, cont_corespondent, debit, credit, valuta, moneda_valuta)
      VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, transactionID, e.FisaCont, e.ContCorespondent, toNumeric(e.Debit), toNumeric(e.Credit), valuta, e.MonedaValuta); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func toNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func fromNumeric(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrTACNameTaken
	}
	return err
}
