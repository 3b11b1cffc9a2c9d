package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"holdingboard/internal/audit"
	"holdingboard/internal/domain"
)

type PersonalTaskCreateOptions struct {
	OwnerEmail string
	Text       string
	Context    string
	Recurrence string
	DueDate    string
}

func (e Engine) CreatePersonalTask(ctx context.Context, opts PersonalTaskCreateOptions) (domain.PersonalTask, error) {
	if opts.OwnerEmail == "" {
		return domain.PersonalTask{}, errors.New("owner email is required")
	}
	if opts.Text == "" {
		return domain.PersonalTask{}, errors.New("text is required")
	}
	if opts.Recurrence == "" {
		opts.Recurrence = domain.RecurrenceNone
	}
	if err := validRecurrence(opts.Recurrence); err != nil {
		return domain.PersonalTask{}, err
	}
	if opts.DueDate != "" {
		if _, err := time.Parse("2006-01-02", opts.DueDate); err != nil {
			return domain.PersonalTask{}, fmt.Errorf("due date: %w", err)
		}
	}
	t := domain.PersonalTask{
		ID:         uuid.New().String(),
		OwnerEmail: opts.OwnerEmail,
		Text:       opts.Text,
		Context:    opts.Context,
		Recurrence: opts.Recurrence,
		DueDate:    optionalString(opts.DueDate),
		CreatedAt:  e.nowRFC3339(),
	}
	if err := e.Repo.InsertPersonalTask(ctx, t); err != nil {
		return domain.PersonalTask{}, err
	}
	e.Audit.BestEffort(ctx, "personal_task.created", "personal_task", t.ID, opts.OwnerEmail, nil)
	return t, nil
}

func validRecurrence(r string) error {
	switch r {
	case domain.RecurrenceNone, domain.RecurrenceDaily, domain.RecurrenceWeekly, domain.RecurrenceMonthly:
		return nil
	}
	return fmt.Errorf("unknown recurrence %q", r)
}

// NextOccurrence advances a due date by one recurrence interval. base must be
// a 2006-01-02 date.
func NextOccurrence(base, recurrence string) (string, error) {
	d, err := time.Parse("2006-01-02", base)
	if err != nil {
		return "", fmt.Errorf("recurrence base date: %w", err)
	}
	switch recurrence {
	case domain.RecurrenceDaily:
		d = d.AddDate(0, 0, 1)
	case domain.RecurrenceWeekly:
		d = d.AddDate(0, 0, 7)
	case domain.RecurrenceMonthly:
		d = d.AddDate(0, 1, 0)
	default:
		return "", fmt.Errorf("recurrence %q has no interval", recurrence)
	}
	return d.Format("2006-01-02"), nil
}

// TogglePersonalTask flips the done flag. Completing a recurring task spawns
// exactly one pending successor due one interval after the old due date, or
// after today when no due date was set. Undoing never retracts an already
// spawned successor.
func (e Engine) TogglePersonalTask(ctx context.Context, id, actorEmail string) (domain.PersonalTask, *domain.PersonalTask, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.PersonalTask{}, nil, err
	}
	defer tx.Rollback()

	t, err := e.Repo.GetPersonalTaskTx(ctx, tx, id)
	if err != nil {
		return domain.PersonalTask{}, nil, err
	}
	t.Done = !t.Done
	var doneAt *string
	if t.Done {
		ts := e.nowRFC3339()
		doneAt = &ts
	}
	t.DoneAt = doneAt
	if err := e.Repo.SetPersonalTaskDoneTx(ctx, tx, id, t.Done, doneAt); err != nil {
		return t, nil, err
	}

	var spawned *domain.PersonalTask
	if t.Done && t.Recurrence != domain.RecurrenceNone {
		base := e.today()
		if t.DueDate != nil {
			base = *t.DueDate
		}
		next, err := NextOccurrence(base, t.Recurrence)
		if err != nil {
			return t, nil, err
		}
		s := domain.PersonalTask{
			ID:         uuid.New().String(),
			OwnerEmail: t.OwnerEmail,
			Text:       t.Text,
			Context:    t.Context,
			Recurrence: t.Recurrence,
			DueDate:    &next,
			CreatedAt:  e.nowRFC3339(),
		}
		if err := e.Repo.InsertPersonalTaskTx(ctx, tx, s); err != nil {
			return t, nil, err
		}
		spawned = &s
	}
	payload := audit.Payload{"done": t.Done}
	if spawned != nil {
		payload["spawned_id"] = spawned.ID
	}
	if err := e.Audit.Append(ctx, tx, "personal_task.toggled", "personal_task", id, actorEmail, payload); err != nil {
		return t, nil, err
	}
	if err := tx.Commit(); err != nil {
		return t, nil, err
	}
	return t, spawned, nil
}

func (e Engine) DeletePersonalTask(ctx context.Context, id, actorEmail string) error {
	if err := e.Repo.DeletePersonalTask(ctx, id); err != nil {
		return err
	}
	e.Audit.BestEffort(ctx, "personal_task.deleted", "personal_task", id, actorEmail, nil)
	return nil
}
