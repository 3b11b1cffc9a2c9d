package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"holdingboard/internal/audit"
	"holdingboard/internal/domain"
	"holdingboard/internal/repo"
)

// ProjectCreateOptions are parameters for creating a project or phase.
type ProjectCreateOptions struct {
	CompanyID     string
	Name          string
	ParentID      string
	ProviderID    string
	Status        string
	Investment    float64
	MonthlyCost   float64
	ExternalDocID string
	Timeline      string
	ActorEmail    string
}

func (e Engine) CreateProject(ctx context.Context, opts ProjectCreateOptions) (domain.Project, error) {
	if opts.Name == "" {
		return domain.Project{}, errors.New("name is required")
	}
	if opts.CompanyID == "" {
		return domain.Project{}, errors.New("company is required")
	}
	if _, err := e.Repo.GetCompany(ctx, opts.CompanyID); err != nil {
		return domain.Project{}, err
	}
	if opts.ParentID != "" {
		parent, err := e.Repo.GetProject(ctx, opts.ParentID)
		if err != nil {
			return domain.Project{}, err
		}
		if parent.ParentProjectID != nil {
			return domain.Project{}, errors.New("phases cannot nest: parent is itself a phase")
		}
	}
	if opts.ProviderID != "" {
		if _, err := e.Repo.GetProvider(ctx, opts.ProviderID); err != nil {
			return domain.Project{}, err
		}
	}
	if opts.Status == "" {
		opts.Status = domain.ProjectOnTrack
	}
	if err := validProjectStatus(opts.Status); err != nil {
		return domain.Project{}, err
	}
	now := e.nowRFC3339()
	p := domain.Project{
		ID:              uuid.New().String(),
		CompanyID:       opts.CompanyID,
		Name:            opts.Name,
		ParentProjectID: optionalString(opts.ParentID),
		ProviderID:      optionalString(opts.ProviderID),
		Status:          opts.Status,
		Investment:      opts.Investment,
		MonthlyCost:     opts.MonthlyCost,
		ExternalDocID:   optionalString(opts.ExternalDocID),
		Timeline:        opts.Timeline,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Project{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertProjectTx(ctx, tx, p); err != nil {
		return domain.Project{}, err
	}
	if err := e.Audit.Append(ctx, tx, "project.created", "project", p.ID, opts.ActorEmail, audit.Payload{
		"name":   p.Name,
		"status": p.Status,
	}); err != nil {
		return domain.Project{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

func validProjectStatus(s string) error {
	switch s {
	case domain.ProjectOnTrack, domain.ProjectDelayed, domain.ProjectCompleted, domain.ProjectArchived:
		return nil
	}
	return fmt.Errorf("unknown project status %q", s)
}

func (e Engine) UpdateProject(ctx context.Context, id string, u repo.ProjectUpdate, actorEmail string) (domain.Project, error) {
	if u.Status != nil {
		if err := validProjectStatus(*u.Status); err != nil {
			return domain.Project{}, err
		}
	}
	if u.ProviderID != nil && *u.ProviderID != "" {
		if _, err := e.Repo.GetProvider(ctx, *u.ProviderID); err != nil {
			return domain.Project{}, err
		}
	}
	u.UpdatedAt = e.nowRFC3339()
	if err := e.Repo.UpdateProjectFields(ctx, id, u); err != nil {
		return domain.Project{}, err
	}
	e.Audit.BestEffort(ctx, "project.updated", "project", id, actorEmail, nil)
	return e.Repo.GetProject(ctx, id)
}

func (e Engine) DeleteProject(ctx context.Context, id, actorEmail string) error {
	if err := e.Repo.DeleteProject(ctx, id); err != nil {
		return err
	}
	e.Audit.BestEffort(ctx, "project.deleted", "project", id, actorEmail, nil)
	return nil
}

// --- tasks ---

type TaskCreateOptions struct {
	Title      string
	ProviderID string
	ProjectID  string
	DueDate    string
	ActorEmail string
}

func (e Engine) CreateTask(ctx context.Context, opts TaskCreateOptions) (domain.Task, error) {
	if opts.Title == "" {
		return domain.Task{}, errors.New("title is required")
	}
	if opts.ProviderID != "" {
		if _, err := e.Repo.GetProvider(ctx, opts.ProviderID); err != nil {
			return domain.Task{}, err
		}
	}
	if opts.ProjectID != "" {
		if _, err := e.Repo.GetProject(ctx, opts.ProjectID); err != nil {
			return domain.Task{}, err
		}
	}
	if opts.DueDate != "" {
		if _, err := time.Parse("2006-01-02", opts.DueDate); err != nil {
			return domain.Task{}, fmt.Errorf("due date: %w", err)
		}
	}
	now := e.nowRFC3339()
	t := domain.Task{
		ID:         uuid.New().String(),
		Title:      opts.Title,
		ProviderID: optionalString(opts.ProviderID),
		ProjectID:  optionalString(opts.ProjectID),
		Status:     domain.TaskPending,
		DueDate:    optionalString(opts.DueDate),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := e.Repo.InsertTask(ctx, t); err != nil {
		return domain.Task{}, err
	}
	e.Audit.BestEffort(ctx, "task.created", "task", t.ID, opts.ActorEmail, audit.Payload{"title": t.Title})
	return t, nil
}

func (e Engine) UpdateTask(ctx context.Context, id string, u repo.TaskUpdate, actorEmail string) (domain.Task, error) {
	if u.Status != nil {
		switch *u.Status {
		case domain.TaskPending, domain.TaskInProgress, domain.TaskDone:
		default:
			return domain.Task{}, fmt.Errorf("unknown task status %q", *u.Status)
		}
	}
	if u.ProviderID != nil && *u.ProviderID != "" {
		if _, err := e.Repo.GetProvider(ctx, *u.ProviderID); err != nil {
			return domain.Task{}, err
		}
	}
	u.UpdatedAt = e.nowRFC3339()
	if err := e.Repo.UpdateTaskFields(ctx, id, u); err != nil {
		return domain.Task{}, err
	}
	e.Audit.BestEffort(ctx, "task.updated", "task", id, actorEmail, nil)
	return e.Repo.GetTask(ctx, id)
}

// CompleteTask marks a task done and, when the task is linked to a project,
// rolls the completion up: the project goes COMPLETED and its provider slot
// is released. Both writes ride one transaction, project first, so a failure
// leaves the task uncompleted rather than an orphaned done task with no
// rollup. Phases of the project are not touched by this path.
func (e Engine) CompleteTask(ctx context.Context, id, actorEmail string) (domain.Task, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()

	t, err := e.Repo.GetTaskTx(ctx, tx, id)
	if err != nil {
		return domain.Task{}, err
	}
	now := e.nowRFC3339()
	if t.ProjectID != nil {
		if err := e.Repo.CompleteProjectTx(ctx, tx, *t.ProjectID, now); err != nil {
			return t, fmt.Errorf("complete project %s: %w", *t.ProjectID, err)
		}
	}
	if err := e.Repo.MarkTaskDoneTx(ctx, tx, id, now); err != nil {
		return t, err
	}
	payload := audit.Payload{}
	if t.ProjectID != nil {
		payload["project_id"] = *t.ProjectID
	}
	if err := e.Audit.Append(ctx, tx, "task.completed", "task", id, actorEmail, payload); err != nil {
		return t, err
	}
	if err := tx.Commit(); err != nil {
		return t, err
	}
	t.Status = domain.TaskDone
	t.UpdatedAt = now
	return t, nil
}

// DeleteTask removes the task row only; deletion is not completion, so a
// linked project is left alone.
func (e Engine) DeleteTask(ctx context.Context, id, actorEmail string) error {
	if err := e.Repo.DeleteTask(ctx, id); err != nil {
		return err
	}
	e.Audit.BestEffort(ctx, "task.deleted", "task", id, actorEmail, nil)
	return nil
}
