package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"holdingboard/internal/domain"
)

const projectColumns = `id,company_id,name,parent_project_id,provider_id,status,investment,monthly_cost,external_doc_id,timeline,created_at,updated_at`

func (r Repo) InsertProject(ctx context.Context, p domain.Project) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO projects(`+projectColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.CompanyID, p.Name, nullableStringPtr(p.ParentProjectID), nullableStringPtr(p.ProviderID), p.Status,
		p.Investment, p.MonthlyCost, nullableStringPtr(p.ExternalDocID), nullable(p.Timeline), p.CreatedAt, p.UpdatedAt)
	return err
}

func (r Repo) InsertProjectTx(ctx context.Context, tx *sql.Tx, p domain.Project) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO projects(`+projectColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.CompanyID, p.Name, nullableStringPtr(p.ParentProjectID), nullableStringPtr(p.ProviderID), p.Status,
		p.Investment, p.MonthlyCost, nullableStringPtr(p.ExternalDocID), nullable(p.Timeline), p.CreatedAt, p.UpdatedAt)
	return err
}

func scanProject(scan func(...any) error) (domain.Project, error) {
	var p domain.Project
	var parentID, providerID, docID, timeline sql.NullString
	err := scan(&p.ID, &p.CompanyID, &p.Name, &parentID, &providerID, &p.Status,
		&p.Investment, &p.MonthlyCost, &docID, &timeline, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	if parentID.Valid {
		p.ParentProjectID = &parentID.String
	}
	if providerID.Valid {
		p.ProviderID = &providerID.String
	}
	if docID.Valid {
		p.ExternalDocID = &docID.String
	}
	if timeline.Valid {
		p.Timeline = timeline.String
	}
	return p, nil
}

func (r Repo) GetProject(ctx context.Context, id string) (domain.Project, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=?`, id)
	return scanProject(row.Scan)
}

func (r Repo) GetProjectTx(ctx context.Context, tx *sql.Tx, id string) (domain.Project, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=?`, id)
	return scanProject(row.Scan)
}

type ProjectFilters struct {
	CompanyID  string
	ProviderID string
	Status     string
	ParentID   string
	RootsOnly  bool
}

func (r Repo) ListProjects(ctx context.Context, f ProjectFilters) ([]domain.Project, error) {
	var clauses []string
	var args []any
	if f.CompanyID != "" {
		clauses = append(clauses, "company_id=?")
		args = append(args, f.CompanyID)
	}
	if f.ProviderID != "" {
		clauses = append(clauses, "provider_id=?")
		args = append(args, f.ProviderID)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.ParentID != "" {
		clauses = append(clauses, "parent_project_id=?")
		args = append(args, f.ParentID)
	}
	if f.RootsOnly {
		clauses = append(clauses, "parent_project_id IS NULL")
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects `+where+` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Project
	for rows.Next() {
		p, err := scanProject(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

// UpdateProjectFields applies a partial update. Pointer fields are written
// when non-nil; ClearProvider/ClearParent force the column to NULL.
type ProjectUpdate struct {
	Name          *string
	Status        *string
	ProviderID    *string
	ClearProvider bool
	Investment    *float64
	MonthlyCost   *float64
	ExternalDocID *string
	Timeline      *string
	UpdatedAt     string
}

func (r Repo) UpdateProjectFields(ctx context.Context, id string, u ProjectUpdate) error {
	fields := []string{"updated_at=?"}
	args := []any{u.UpdatedAt}
	if u.Name != nil {
		fields = append(fields, "name=?")
		args = append(args, *u.Name)
	}
	if u.Status != nil {
		fields = append(fields, "status=?")
		args = append(args, *u.Status)
	}
	if u.ClearProvider {
		fields = append(fields, "provider_id=NULL")
	} else if u.ProviderID != nil {
		fields = append(fields, "provider_id=?")
		args = append(args, nullable(*u.ProviderID))
	}
	if u.Investment != nil {
		fields = append(fields, "investment=?")
		args = append(args, *u.Investment)
	}
	if u.MonthlyCost != nil {
		fields = append(fields, "monthly_cost=?")
		args = append(args, *u.MonthlyCost)
	}
	if u.ExternalDocID != nil {
		fields = append(fields, "external_doc_id=?")
		args = append(args, nullable(*u.ExternalDocID))
	}
	if u.Timeline != nil {
		fields = append(fields, "timeline=?")
		args = append(args, nullable(*u.Timeline))
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx, fmt.Sprintf(`UPDATE projects SET %s WHERE id=?`, strings.Join(fields, ",")), args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CompleteProjectTx marks a project COMPLETED and releases its provider slot
// in one statement, as part of the bilateral completion transaction.
func (r Repo) CompleteProjectTx(ctx context.Context, tx *sql.Tx, id, updatedAt string) error {
	res, err := tx.ExecContext(ctx, `UPDATE projects SET status=?, provider_id=NULL, updated_at=? WHERE id=?`,
		domain.ProjectCompleted, updatedAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteProject(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM projects WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- tasks ---

const taskColumns = `id,title,provider_id,project_id,status,due_date,created_at,updated_at`

func (r Repo) InsertTask(ctx context.Context, t domain.Task) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO tasks(`+taskColumns+`) VALUES (?,?,?,?,?,?,?,?)`,
		t.ID, t.Title, nullableStringPtr(t.ProviderID), nullableStringPtr(t.ProjectID), t.Status,
		nullableStringPtr(t.DueDate), t.CreatedAt, t.UpdatedAt)
	return err
}

func scanTask(scan func(...any) error) (domain.Task, error) {
	var t domain.Task
	var providerID, projectID, dueDate sql.NullString
	err := scan(&t.ID, &t.Title, &providerID, &projectID, &t.Status, &dueDate, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	if providerID.Valid {
		t.ProviderID = &providerID.String
	}
	if projectID.Valid {
		t.ProjectID = &projectID.String
	}
	if dueDate.Valid {
		t.DueDate = &dueDate.String
	}
	return t, nil
}

func (r Repo) GetTask(ctx context.Context, id string) (domain.Task, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=?`, id)
	return scanTask(row.Scan)
}

func (r Repo) GetTaskTx(ctx context.Context, tx *sql.Tx, id string) (domain.Task, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=?`, id)
	return scanTask(row.Scan)
}

type TaskFilters struct {
	ProviderID string
	ProjectID  string
	Status     string
}

func (r Repo) ListTasks(ctx context.Context, f TaskFilters) ([]domain.Task, error) {
	var clauses []string
	var args []any
	if f.ProviderID != "" {
		clauses = append(clauses, "provider_id=?")
		args = append(args, f.ProviderID)
	}
	if f.ProjectID != "" {
		clauses = append(clauses, "project_id=?")
		args = append(args, f.ProjectID)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks `+where+` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

type TaskUpdate struct {
	Title         *string
	Status        *string
	ProviderID    *string
	ClearProvider bool
	DueDate       *string
	ClearDueDate  bool
	UpdatedAt     string
}

func (r Repo) UpdateTaskFields(ctx context.Context, id string, u TaskUpdate) error {
	fields := []string{"updated_at=?"}
	args := []any{u.UpdatedAt}
	if u.Title != nil {
		fields = append(fields, "title=?")
		args = append(args, *u.Title)
	}
	if u.Status != nil {
		fields = append(fields, "status=?")
		args = append(args, *u.Status)
	}
	if u.ClearProvider {
		fields = append(fields, "provider_id=NULL")
	} else if u.ProviderID != nil {
		fields = append(fields, "provider_id=?")
		args = append(args, nullable(*u.ProviderID))
	}
	if u.ClearDueDate {
		fields = append(fields, "due_date=NULL")
	} else if u.DueDate != nil {
		fields = append(fields, "due_date=?")
		args = append(args, nullable(*u.DueDate))
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx, fmt.Sprintf(`UPDATE tasks SET %s WHERE id=?`, strings.Join(fields, ",")), args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) MarkTaskDoneTx(ctx context.Context, tx *sql.Tx, id, updatedAt string) error {
	res, err := tx.ExecContext(ctx, `UPDATE tasks SET status=?, updated_at=? WHERE id=?`, domain.TaskDone, updatedAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteTask(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM tasks WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
