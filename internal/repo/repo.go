package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"holdingboard/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

// --- companies ---

func (r Repo) InsertCompany(ctx context.Context, c domain.Company) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO companies(id,name,sector,created_at) VALUES (?,?,?,?)`,
		c.ID, c.Name, nullable(c.Sector), c.CreatedAt)
	return err
}

func (r Repo) GetCompany(ctx context.Context, id string) (domain.Company, error) {
	var c domain.Company
	var sector sql.NullString
	err := r.DB.QueryRowContext(ctx, `SELECT id,name,sector,created_at FROM companies WHERE id=?`, id).
		Scan(&c.ID, &c.Name, &sector, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	if sector.Valid {
		c.Sector = sector.String
	}
	return c, err
}

func (r Repo) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,COALESCE(sector,''),created_at FROM companies ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Company
	for rows.Next() {
		var c domain.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Sector, &c.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r Repo) UpdateCompany(ctx context.Context, id string, name, sector *string) error {
	var fields []string
	var args []any
	if name != nil {
		fields = append(fields, "name=?")
		args = append(args, *name)
	}
	if sector != nil {
		fields = append(fields, "sector=?")
		args = append(args, nullable(*sector))
	}
	if len(fields) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx, fmt.Sprintf(`UPDATE companies SET %s WHERE id=?`, strings.Join(fields, ",")), args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteCompany(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM companies WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- providers ---

func (r Repo) InsertProvider(ctx context.Context, p domain.Provider) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO providers(id,name,kind,capacity_slots,created_at) VALUES (?,?,?,?,?)`,
		p.ID, p.Name, p.Kind, p.CapacitySlots, p.CreatedAt)
	return err
}

func (r Repo) GetProvider(ctx context.Context, id string) (domain.Provider, error) {
	var p domain.Provider
	var slots sql.NullInt64
	err := r.DB.QueryRowContext(ctx, `SELECT id,name,kind,capacity_slots,created_at FROM providers WHERE id=?`, id).
		Scan(&p.ID, &p.Name, &p.Kind, &slots, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	if slots.Valid {
		p.CapacitySlots = int(slots.Int64)
	}
	return p, err
}

func (r Repo) ListProviders(ctx context.Context) ([]domain.Provider, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,kind,COALESCE(capacity_slots,0),created_at FROM providers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Provider
	for rows.Next() {
		var p domain.Provider
		if err := rows.Scan(&p.ID, &p.Name, &p.Kind, &p.CapacitySlots, &p.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r Repo) UpdateProvider(ctx context.Context, id string, name *string, capacitySlots *int) error {
	var fields []string
	var args []any
	if name != nil {
		fields = append(fields, "name=?")
		args = append(args, *name)
	}
	if capacitySlots != nil {
		fields = append(fields, "capacity_slots=?")
		args = append(args, *capacitySlots)
	}
	if len(fields) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx, fmt.Sprintf(`UPDATE providers SET %s WHERE id=?`, strings.Join(fields, ",")), args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteProvider(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM providers WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- audit log ---

func (r Repo) LatestAuditEntries(ctx context.Context, limit int, entryType, entityKind, entityID string) ([]domain.AuditEntry, error) {
	clauses := []string{"1=1"}
	var args []any
	if entryType != "" {
		clauses = append(clauses, "type=?")
		args = append(args, entryType)
	}
	if entityKind != "" {
		clauses = append(clauses, "entity_kind=?")
		args = append(args, entityKind)
	}
	if entityID != "" {
		clauses = append(clauses, "entity_id=?")
		args = append(args, entityID)
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := fmt.Sprintf(`SELECT id,ts,type,entity_kind,entity_id,actor_email,payload_json FROM audit_logs %s ORDER BY id DESC LIMIT ?`, where)
	args = append(args, limit)
	return r.scanAuditEntries(ctx, query, args...)
}

// AuditEntriesAfter returns entries with IDs greater than the cursor in
// ascending order, for the webhook dispatcher.
func (r Repo) AuditEntriesAfter(ctx context.Context, limit int, cursor int64) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.scanAuditEntries(ctx,
		`SELECT id,ts,type,entity_kind,entity_id,actor_email,payload_json FROM audit_logs WHERE id>? ORDER BY id ASC LIMIT ?`,
		cursor, limit)
}

// LatestAuditID returns the highest audit entry ID, or 0 when the log is
// empty. Dispatchers use it to skip history present before they started.
func (r Repo) LatestAuditID(ctx context.Context) (int64, error) {
	var id sql.NullInt64
	if err := r.DB.QueryRowContext(ctx, `SELECT MAX(id) FROM audit_logs`).Scan(&id); err != nil {
		return 0, err
	}
	return id.Int64, nil
}

func (r Repo) scanAuditEntries(ctx context.Context, query string, args ...any) ([]domain.AuditEntry, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var entityID sql.NullString
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.EntityKind, &entityID, &e.ActorEmail, &e.Payload); err != nil {
			return nil, err
		}
		if entityID.Valid {
			e.EntityID = entityID.String
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// --- helpers ---

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	if *v == "" {
		return nil
	}
	return *v
}
