package repo

import (
	"context"
	"database/sql"

	"holdingboard/internal/domain"
)

const regulatoryDocColumns = `id,company_id,category,status,expiration,file_url,created_at`

func scanRegulatoryDoc(scan func(...any) error) (domain.RegulatoryDoc, error) {
	var d domain.RegulatoryDoc
	var expiration, fileURL sql.NullString
	err := scan(&d.ID, &d.CompanyID, &d.Category, &d.Status, &expiration, &fileURL, &d.CreatedAt)
	if err != nil {
		return d, err
	}
	if expiration.Valid {
		d.Expiration = &expiration.String
	}
	if fileURL.Valid {
		d.FileURL = &fileURL.String
	}
	return d, nil
}

func (r Repo) InsertRegulatoryDoc(ctx context.Context, d domain.RegulatoryDoc) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO regulatory_docs(`+regulatoryDocColumns+`) VALUES (?,?,?,?,?,?,?)`,
		d.ID, d.CompanyID, d.Category, d.Status,
		nullableStringPtr(d.Expiration), nullableStringPtr(d.FileURL), d.CreatedAt)
	return err
}

func (r Repo) GetRegulatoryDoc(ctx context.Context, id string) (domain.RegulatoryDoc, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+regulatoryDocColumns+` FROM regulatory_docs WHERE id=?`, id)
	d, err := scanRegulatoryDoc(row.Scan)
	if err == sql.ErrNoRows {
		return d, ErrNotFound
	}
	return d, err
}

type RegulatoryDocFilters struct {
	CompanyID string
	Category  string
}

func (r Repo) ListRegulatoryDocs(ctx context.Context, f RegulatoryDocFilters) ([]domain.RegulatoryDoc, error) {
	query := `SELECT ` + regulatoryDocColumns + ` FROM regulatory_docs`
	var clauses []string
	var args []any
	if f.CompanyID != "" {
		clauses = append(clauses, "company_id=?")
		args = append(args, f.CompanyID)
	}
	if f.Category != "" {
		clauses = append(clauses, "category=?")
		args = append(args, f.Category)
	}
	for i, c := range clauses {
		if i == 0 {
			query += ` WHERE `
		} else {
			query += ` AND `
		}
		query += c
	}
	query += ` ORDER BY company_id, category, created_at`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.RegulatoryDoc
	for rows.Next() {
		d, err := scanRegulatoryDoc(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

type RegulatoryDocUpdate struct {
	Status          *string
	Expiration      *string
	ClearExpiration bool
	FileURL         *string
}

func (r Repo) UpdateRegulatoryDocFields(ctx context.Context, id string, u RegulatoryDocUpdate) error {
	var fields []string
	var args []any
	if u.Status != nil {
		fields = append(fields, "status=?")
		args = append(args, *u.Status)
	}
	if u.ClearExpiration {
		fields = append(fields, "expiration=NULL")
	} else if u.Expiration != nil {
		fields = append(fields, "expiration=?")
		args = append(args, *u.Expiration)
	}
	if u.FileURL != nil {
		fields = append(fields, "file_url=?")
		args = append(args, *u.FileURL)
	}
	if len(fields) == 0 {
		return nil
	}
	query := `UPDATE regulatory_docs SET `
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

func (r Repo) DeleteRegulatoryDoc(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM regulatory_docs WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
