package repo

import (
	"context"
	"database/sql"

	"holdingboard/internal/domain"
)

const personalTaskColumns = `id,owner_email,text,context,recurrence,done,done_at,due_date,created_at`

func scanPersonalTask(scan func(...any) error) (domain.PersonalTask, error) {
	var t domain.PersonalTask
	var doneAt, dueDate sql.NullString
	err := scan(&t.ID, &t.OwnerEmail, &t.Text, &t.Context, &t.Recurrence, &t.Done, &doneAt, &dueDate, &t.CreatedAt)
	if err != nil {
		return t, err
	}
	if doneAt.Valid {
		t.DoneAt = &doneAt.String
	}
	if dueDate.Valid {
		t.DueDate = &dueDate.String
	}
	return t, nil
}

func (r Repo) InsertPersonalTask(ctx context.Context, t domain.PersonalTask) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO personal_tasks(`+personalTaskColumns+`) VALUES (?,?,?,?,?,?,?,?,?)`,
		t.ID, t.OwnerEmail, t.Text, t.Context, t.Recurrence, t.Done,
		nullableStringPtr(t.DoneAt), nullableStringPtr(t.DueDate), t.CreatedAt)
	return err
}

func (r Repo) InsertPersonalTaskTx(ctx context.Context, tx *sql.Tx, t domain.PersonalTask) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO personal_tasks(`+personalTaskColumns+`) VALUES (?,?,?,?,?,?,?,?,?)`,
		t.ID, t.OwnerEmail, t.Text, t.Context, t.Recurrence, t.Done,
		nullableStringPtr(t.DoneAt), nullableStringPtr(t.DueDate), t.CreatedAt)
	return err
}

func (r Repo) GetPersonalTask(ctx context.Context, id string) (domain.PersonalTask, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+personalTaskColumns+` FROM personal_tasks WHERE id=?`, id)
	t, err := scanPersonalTask(row.Scan)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	return t, err
}

func (r Repo) GetPersonalTaskTx(ctx context.Context, tx *sql.Tx, id string) (domain.PersonalTask, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+personalTaskColumns+` FROM personal_tasks WHERE id=?`, id)
	t, err := scanPersonalTask(row.Scan)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	return t, err
}

// PersonalTaskFilters narrows ListPersonalTasks. Empty fields are ignored.
type PersonalTaskFilters struct {
	OwnerEmail string
	Context    string
	Pending    bool
}

func (r Repo) ListPersonalTasks(ctx context.Context, f PersonalTaskFilters) ([]domain.PersonalTask, error) {
	query := `SELECT ` + personalTaskColumns + ` FROM personal_tasks`
	var clauses []string
	var args []any
	if f.OwnerEmail != "" {
		clauses = append(clauses, "owner_email=?")
		args = append(args, f.OwnerEmail)
	}
	if f.Context != "" {
		clauses = append(clauses, "context=?")
		args = append(args, f.Context)
	}
	if f.Pending {
		clauses = append(clauses, "done=0")
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
	var res []domain.PersonalTask
	for rows.Next() {
		t, err := scanPersonalTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// SetPersonalTaskDoneTx flips the done flag; doneAt is NULL when reopening.
func (r Repo) SetPersonalTaskDoneTx(ctx context.Context, tx *sql.Tx, id string, done bool, doneAt *string) error {
	res, err := tx.ExecContext(ctx, `UPDATE personal_tasks SET done=?, done_at=? WHERE id=?`,
		done, nullableStringPtr(doneAt), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type PersonalTaskUpdate struct {
	Text         *string
	Context      *string
	Recurrence   *string
	DueDate      *string
	ClearDueDate bool
}

func (r Repo) UpdatePersonalTaskFields(ctx context.Context, id string, u PersonalTaskUpdate) error {
	var fields []string
	var args []any
	if u.Text != nil {
		fields = append(fields, "text=?")
		args = append(args, *u.Text)
	}
	if u.Context != nil {
		fields = append(fields, "context=?")
		args = append(args, *u.Context)
	}
	if u.Recurrence != nil {
		fields = append(fields, "recurrence=?")
		args = append(args, *u.Recurrence)
	}
	if u.ClearDueDate {
		fields = append(fields, "due_date=NULL")
	} else if u.DueDate != nil {
		fields = append(fields, "due_date=?")
		args = append(args, *u.DueDate)
	}
	if len(fields) == 0 {
		return nil
	}
	query := `UPDATE personal_tasks SET `
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

func (r Repo) DeletePersonalTask(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM personal_tasks WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
