package repo

import (
	"context"
	"database/sql"

	"holdingboard/internal/domain"
)

func (r Repo) UpsertProfile(ctx context.Context, p domain.Profile) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO profiles(email,name,admin,provider_id,created_at) VALUES (?,?,?,?,?)
		 ON CONFLICT(email) DO UPDATE SET name=excluded.name, admin=excluded.admin, provider_id=excluded.provider_id`,
		p.Email, nullable(p.Name), p.Admin, nullableStringPtr(p.ProviderID), p.CreatedAt)
	return err
}

func (r Repo) GetProfile(ctx context.Context, email string) (domain.Profile, error) {
	var p domain.Profile
	var providerID sql.NullString
	err := r.DB.QueryRowContext(ctx,
		`SELECT email,COALESCE(name,''),admin,provider_id,created_at FROM profiles WHERE email=?`, email).
		Scan(&p.Email, &p.Name, &p.Admin, &providerID, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	if providerID.Valid {
		p.ProviderID = &providerID.String
	}
	return p, nil
}

func (r Repo) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT email,COALESCE(name,''),admin,provider_id,created_at FROM profiles ORDER BY email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Profile
	for rows.Next() {
		var p domain.Profile
		var providerID sql.NullString
		if err := rows.Scan(&p.Email, &p.Name, &p.Admin, &providerID, &p.CreatedAt); err != nil {
			return nil, err
		}
		if providerID.Valid {
			p.ProviderID = &providerID.String
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r Repo) DeleteProfile(ctx context.Context, email string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM profiles WHERE email=?`, email)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- app settings (small key/value store for stored group config) ---

func (r Repo) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.DB.QueryRowContext(ctx, `SELECT value_json FROM app_settings WHERE key=?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return value, err
}

func (r Repo) PutSetting(ctx context.Context, key, valueJSON string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO app_settings(key,value_json) VALUES (?,?)
		 ON CONFLICT(key) DO UPDATE SET value_json=excluded.value_json`,
		key, valueJSON)
	return err
}
