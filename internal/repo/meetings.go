package repo

import (
	"context"
	"database/sql"

	"holdingboard/internal/domain"
)

func (r Repo) InsertMeeting(ctx context.Context, m domain.Meeting) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO meetings(id,context,date,status,created_at) VALUES (?,?,?,?,?)`,
		m.ID, nullable(m.Context), m.Date, m.Status, m.CreatedAt)
	return err
}

// GetMeeting loads a meeting with its ordered item lists and decisions.
func (r Repo) GetMeeting(ctx context.Context, id string) (domain.Meeting, error) {
	var m domain.Meeting
	var mctx sql.NullString
	err := r.DB.QueryRowContext(ctx, `SELECT id,context,date,status,created_at FROM meetings WHERE id=?`, id).
		Scan(&m.ID, &mctx, &m.Date, &m.Status, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return m, ErrNotFound
	}
	if err != nil {
		return m, err
	}
	if mctx.Valid {
		m.Context = mctx.String
	}
	m.Items, err = r.ListMeetingItems(ctx, id, "")
	if err != nil {
		return m, err
	}
	m.Decisions, err = r.ListMeetingDecisions(ctx, id)
	return m, err
}

func (r Repo) ListMeetings(ctx context.Context, status string) ([]domain.Meeting, error) {
	query := `SELECT id,COALESCE(context,''),date,status,created_at FROM meetings ORDER BY date DESC, id DESC`
	var args []any
	if status != "" {
		query = `SELECT id,COALESCE(context,''),date,status,created_at FROM meetings WHERE status=? ORDER BY date DESC, id DESC`
		args = append(args, status)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Meeting
	for rows.Next() {
		var m domain.Meeting
		if err := rows.Scan(&m.ID, &m.Context, &m.Date, &m.Status, &m.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

func (r Repo) SetMeetingStatusTx(ctx context.Context, tx *sql.Tx, id, status string) error {
	res, err := tx.ExecContext(ctx, `UPDATE meetings SET status=? WHERE id=?`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteMeeting(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM meetings WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- meeting items ---

func (r Repo) InsertMeetingItem(ctx context.Context, it domain.MeetingItem) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO meeting_items(id,meeting_id,list,position,text,done) VALUES (?,?,?,?,?,?)`,
		it.ID, it.MeetingID, it.List, it.Position, it.Text, it.Done)
	return err
}

func (r Repo) ListMeetingItems(ctx context.Context, meetingID, list string) ([]domain.MeetingItem, error) {
	query := `SELECT id,meeting_id,list,position,text,done FROM meeting_items WHERE meeting_id=? ORDER BY list, position`
	args := []any{meetingID}
	if list != "" {
		query = `SELECT id,meeting_id,list,position,text,done FROM meeting_items WHERE meeting_id=? AND list=? ORDER BY position`
		args = append(args, list)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.MeetingItem
	for rows.Next() {
		var it domain.MeetingItem
		if err := rows.Scan(&it.ID, &it.MeetingID, &it.List, &it.Position, &it.Text, &it.Done); err != nil {
			return nil, err
		}
		res = append(res, it)
	}
	return res, rows.Err()
}

func (r Repo) UpdateMeetingItem(ctx context.Context, id string, text *string, done *bool) error {
	if text == nil && done == nil {
		return nil
	}
	query := `UPDATE meeting_items SET `
	var args []any
	if text != nil {
		query += `text=?`
		args = append(args, *text)
	}
	if done != nil {
		if text != nil {
			query += `, `
		}
		query += `done=?`
		args = append(args, *done)
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

// ReplaceItemPositions rewrites the position column for one list after a
// reorder. Positions follow slice order.
func (r Repo) ReplaceItemPositions(ctx context.Context, items []domain.MeetingItem) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for i, it := range items {
		if _, err := tx.ExecContext(ctx, `UPDATE meeting_items SET position=? WHERE id=?`, i, it.ID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r Repo) DeleteMeetingItem(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM meeting_items WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- meeting decisions ---

func (r Repo) InsertMeetingDecision(ctx context.Context, d domain.MeetingDecision) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO meeting_decisions(id,meeting_id,position,text,responsible_provider_id,done,processed) VALUES (?,?,?,?,?,?,?)`,
		d.ID, d.MeetingID, d.Position, d.Text, nullableStringPtr(d.ResponsibleProviderID), d.Done, d.Processed)
	return err
}

func (r Repo) ListMeetingDecisions(ctx context.Context, meetingID string) ([]domain.MeetingDecision, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id,meeting_id,position,text,responsible_provider_id,done,processed FROM meeting_decisions WHERE meeting_id=? ORDER BY position`, meetingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.MeetingDecision
	for rows.Next() {
		var d domain.MeetingDecision
		var responsible sql.NullString
		if err := rows.Scan(&d.ID, &d.MeetingID, &d.Position, &d.Text, &responsible, &d.Done, &d.Processed); err != nil {
			return nil, err
		}
		if responsible.Valid {
			d.ResponsibleProviderID = &responsible.String
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

func (r Repo) ListMeetingDecisionsTx(ctx context.Context, tx *sql.Tx, meetingID string) ([]domain.MeetingDecision, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id,meeting_id,position,text,responsible_provider_id,done,processed FROM meeting_decisions WHERE meeting_id=? ORDER BY position`, meetingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.MeetingDecision
	for rows.Next() {
		var d domain.MeetingDecision
		var responsible sql.NullString
		if err := rows.Scan(&d.ID, &d.MeetingID, &d.Position, &d.Text, &responsible, &d.Done, &d.Processed); err != nil {
			return nil, err
		}
		if responsible.Valid {
			d.ResponsibleProviderID = &responsible.String
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

func (r Repo) UpdateMeetingDecision(ctx context.Context, id string, text *string, responsible *string, clearResponsible bool, done *bool) error {
	fields := []string{}
	var args []any
	if text != nil {
		fields = append(fields, "text=?")
		args = append(args, *text)
	}
	if clearResponsible {
		fields = append(fields, "responsible_provider_id=NULL")
	} else if responsible != nil {
		fields = append(fields, "responsible_provider_id=?")
		args = append(args, nullable(*responsible))
	}
	if done != nil {
		fields = append(fields, "done=?")
		args = append(args, *done)
	}
	if len(fields) == 0 {
		return nil
	}
	args = append(args, id)
	query := `UPDATE meeting_decisions SET `
	for i, f := range fields {
		if i > 0 {
			query += `, `
		}
		query += f
	}
	query += ` WHERE id=?`
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) MarkDecisionProcessedTx(ctx context.Context, tx *sql.Tx, id string) error {
	_, err := tx.ExecContext(ctx, `UPDATE meeting_decisions SET processed=1 WHERE id=?`, id)
	return err
}

func (r Repo) DeleteMeetingDecision(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM meeting_decisions WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
