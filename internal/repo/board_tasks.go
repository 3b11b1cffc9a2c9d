package repo

import (
	"context"
	"database/sql"
	"strings"

	"holdingboard/internal/domain"
)

const boardTaskColumns = `id,title,provider_id,requestor_email,requestor_name,status,archived_by_provider,archived_by_requestor,response_comment,attachment_url,refusal_reason,created_at,updated_at`

func (r Repo) InsertBoardTask(ctx context.Context, b domain.BoardTask) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO board_tasks(`+boardTaskColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		b.ID, b.Title, b.ProviderID, b.RequestorEmail, nullable(b.RequestorName), b.Status,
		b.ArchivedByProvider, b.ArchivedByRequestor, nullableStringPtr(b.ResponseComment),
		nullableStringPtr(b.AttachmentURL), nullableStringPtr(b.RefusalReason), b.CreatedAt, b.UpdatedAt)
	return err
}

func (r Repo) InsertBoardTaskTx(ctx context.Context, tx *sql.Tx, b domain.BoardTask) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO board_tasks(`+boardTaskColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		b.ID, b.Title, b.ProviderID, b.RequestorEmail, nullable(b.RequestorName), b.Status,
		b.ArchivedByProvider, b.ArchivedByRequestor, nullableStringPtr(b.ResponseComment),
		nullableStringPtr(b.AttachmentURL), nullableStringPtr(b.RefusalReason), b.CreatedAt, b.UpdatedAt)
	return err
}

func scanBoardTask(scan func(...any) error) (domain.BoardTask, error) {
	var b domain.BoardTask
	var requestorName, comment, attachment, refusal sql.NullString
	err := scan(&b.ID, &b.Title, &b.ProviderID, &b.RequestorEmail, &requestorName, &b.Status,
		&b.ArchivedByProvider, &b.ArchivedByRequestor, &comment, &attachment, &refusal, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return b, ErrNotFound
	}
	if err != nil {
		return b, err
	}
	if requestorName.Valid {
		b.RequestorName = requestorName.String
	}
	if comment.Valid {
		b.ResponseComment = &comment.String
	}
	if attachment.Valid {
		b.AttachmentURL = &attachment.String
	}
	if refusal.Valid {
		b.RefusalReason = &refusal.String
	}
	return b, nil
}

func (r Repo) GetBoardTask(ctx context.Context, id string) (domain.BoardTask, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+boardTaskColumns+` FROM board_tasks WHERE id=?`, id)
	return scanBoardTask(row.Scan)
}

type BoardTaskFilters struct {
	ProviderID     string
	RequestorEmail string
	Status         string
}

func (r Repo) ListBoardTasks(ctx context.Context, f BoardTaskFilters) ([]domain.BoardTask, error) {
	var clauses []string
	var args []any
	if f.ProviderID != "" {
		clauses = append(clauses, "provider_id=?")
		args = append(args, f.ProviderID)
	}
	if f.RequestorEmail != "" {
		clauses = append(clauses, "requestor_email=?")
		args = append(args, f.RequestorEmail)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+boardTaskColumns+` FROM board_tasks `+where+` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.BoardTask
	for rows.Next() {
		b, err := scanBoardTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, b)
	}
	return res, rows.Err()
}

// ResolveBoardTask records a success (done + response) or a refusal. Fields
// not relevant to the outcome are cleared.
func (r Repo) ResolveBoardTask(ctx context.Context, id, status string, comment, attachmentURL, refusal *string, updatedAt string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE board_tasks SET status=?, response_comment=?, attachment_url=?, refusal_reason=?, updated_at=? WHERE id=?`,
		status, nullableStringPtr(comment), nullableStringPtr(attachmentURL), nullableStringPtr(refusal), updatedAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ReopenBoardTask resets a resolved task to pending, clearing both archive
// flags and the response/refusal payload in one statement.
func (r Repo) ReopenBoardTask(ctx context.Context, id, updatedAt string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE board_tasks SET status=?, archived_by_provider=0, archived_by_requestor=0,
		 response_comment=NULL, attachment_url=NULL, refusal_reason=NULL, updated_at=? WHERE id=?`,
		domain.BoardPending, updatedAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetBoardTaskArchiveFlag flips the archive flag owned by one stakeholder
// role without touching the other side.
func (r Repo) SetBoardTaskArchiveFlag(ctx context.Context, id string, byProvider, archived bool, updatedAt string) error {
	column := "archived_by_requestor"
	if byProvider {
		column = "archived_by_provider"
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE board_tasks SET `+column+`=?, updated_at=? WHERE id=?`, archived, updatedAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteBoardTask(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM board_tasks WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
