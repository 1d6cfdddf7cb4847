package employee

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"salarizare/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const employeeColumns = `id, unique_id, nume, companie, principal_loc_munca,
    persoane_intretinere, din_care_minori, varsta, tichete_de_masa,
    valoare_tichet_de_masa, zile_co_medical, indemnizatie_zi_co_medical,
    zile_co_odihna, indemnizatie_zi_co_odihna, salariu_cim,
    sal_brut_cf_zile_lucrate_rounded, indem_co_medical_rounded, indem_co_odihna_rounded`

func scanEmployee(row pgx.Row) (Employee, error) {
	var e Employee
	err := row.Scan(
		&e.ID, &e.UniqueID, &e.Nume, &e.Companie, &e.PrincipalLocMunca,
		&e.PersoaneIntretinere, &e.DinCareMinori, &e.Varsta, &e.TicheteDeMasa,
		&e.ValoareTichetDeMasa, &e.ZileCOMedical, &e.IndemnizatieZiCOMedical,
		&e.ZileCOOdihna, &e.IndemnizatieZiCOOdihna, &e.SalariuCIM,
		&e.SalBrutCfZileLucrateRounded, &e.IndemCOMedicalRounded, &e.IndemCOOdihnaRounded,
	)
	return e, err
}

func employeeArgs(e Employee) []any {
	return []any{
		e.ID, e.UniqueID, e.Nume, e.Companie, e.PrincipalLocMunca,
		e.PersoaneIntretinere, e.DinCareMinori, e.Varsta, e.TicheteDeMasa,
		e.ValoareTichetDeMasa, e.ZileCOMedical, e.IndemnizatieZiCOMedical,
		e.ZileCOOdihna, e.IndemnizatieZiCOOdihna, e.SalariuCIM,
		e.SalBrutCfZileLucrateRounded, e.IndemCOMedicalRounded, e.IndemCOOdihnaRounded,
	}
}

const insertEmployee = `
    INSERT INTO employees (` + employeeColumns + `)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
  `

func (s *Store) List(ctx context.Context) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, id int64) (Employee, error) {
	e, err := scanEmployee(s.DB.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrNotFound
	}
	return e, err
}

// ReplaceAll swaps the whole collection in one transaction.
func (s *Store) ReplaceAll(ctx context.Context, employees []Employee) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM employees`); err != nil {
		return err
	}
	for _, e := range employees {
		if _, err := tx.Exec(ctx, insertEmployee, employeeArgs(e)...); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) Add(ctx context.Context, e Employee) error {
	_, err := s.DB.Exec(ctx, insertEmployee, employeeArgs(e)...)
	return err
}

func (s *Store) Update(ctx context.Context, e Employee) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE employees
    SET unique_id = $2, nume = $3, companie = $4, principal_loc_munca = $5,
        persoane_intretinere = $6, din_care_minori = $7, varsta = $8, tichete_de_masa = $9,
        valoare_tichet_de_masa = $10, zile_co_medical = $11, indemnizatie_zi_co_medical = $12,
        zile_co_odihna = $13, indemnizatie_zi_co_odihna = $14, salariu_cim = $15,
        sal_brut_cf_zile_lucrate_rounded = $16, indem_co_medical_rounded = $17,
        indem_co_odihna_rounded = $18, updated_at = now()
    WHERE id = $1
  `, employeeArgs(e)...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, id int64) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
