package repo

import (
	"context"
	"database/sql"

	"holdingboard/internal/domain"
)

const thesisColumns = `id,title,company_id,risk_score,monthly_revenue,status,project_id,created_at`

func scanThesis(scan func(...any) error) (domain.Thesis, error) {
	var t domain.Thesis
	var projectID sql.NullString
	err := scan(&t.ID, &t.Title, &t.CompanyID, &t.RiskScore, &t.MonthlyRevenue, &t.Status, &projectID, &t.CreatedAt)
	if err != nil {
		return t, err
	}
	if projectID.Valid {
		t.ProjectID = &projectID.String
	}
	return t, nil
}

func (r Repo) InsertThesis(ctx context.Context, t domain.Thesis) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO theses(`+thesisColumns+`) VALUES (?,?,?,?,?,?,?,?)`,
		t.ID, t.Title, t.CompanyID, t.RiskScore, t.MonthlyRevenue, t.Status,
		nullableStringPtr(t.ProjectID), t.CreatedAt)
	return err
}

func (r Repo) GetThesis(ctx context.Context, id string) (domain.Thesis, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+thesisColumns+` FROM theses WHERE id=?`, id)
	t, err := scanThesis(row.Scan)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	return t, err
}

func (r Repo) GetThesisTx(ctx context.Context, tx *sql.Tx, id string) (domain.Thesis, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+thesisColumns+` FROM theses WHERE id=?`, id)
	t, err := scanThesis(row.Scan)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	return t, err
}

type ThesisFilters struct {
	CompanyID string
	Status    string
}

func (r Repo) ListTheses(ctx context.Context, f ThesisFilters) ([]domain.Thesis, error) {
	query := `SELECT ` + thesisColumns + ` FROM theses`
	var clauses []string
	var args []any
	if f.CompanyID != "" {
		clauses = append(clauses, "company_id=?")
		args = append(args, f.CompanyID)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	for i, c := range clauses {
		if i == 0 {
			query += ` WHERE `
		} else {
			query += ` AND `
		}
		query += c
	}
	query += ` ORDER BY created_at, id`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Thesis
	for rows.Next() {
		t, err := scanThesis(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

type ThesisUpdate struct {
	Title          *string
	RiskScore      *float64
	MonthlyRevenue *float64
}

func (r Repo) UpdateThesisFields(ctx context.Context, id string, u ThesisUpdate) error {
	var fields []string
	var args []any
	if u.Title != nil {
		fields = append(fields, "title=?")
		args = append(args, *u.Title)
	}
	if u.RiskScore != nil {
		fields = append(fields, "risk_score=?")
		args = append(args, *u.RiskScore)
	}
	if u.MonthlyRevenue != nil {
		fields = append(fields, "monthly_revenue=?")
		args = append(args, *u.MonthlyRevenue)
	}
	if len(fields) == 0 {
		return nil
	}
	query := `UPDATE theses SET `
	for i, f := range fields {
		if i > 0 {
			query += `, `
		}
		query += f
	}
	query += ` WHERE id=?`
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ResolveThesisTx records an approval or rejection. projectID is set only on
// approval.
func (r Repo) ResolveThesisTx(ctx context.Context, tx *sql.Tx, id, status string, projectID *string) error {
	res, err := tx.ExecContext(ctx, `UPDATE theses SET status=?, project_id=? WHERE id=?`,
		status, nullableStringPtr(projectID), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteThesis(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM theses WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
