package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"holdingboard/internal/audit"
	"holdingboard/internal/domain"
	"holdingboard/internal/engine/session"
)

// View modes for the board list partition.
const (
	ViewActive   = "active"
	ViewArchived = "archived"
)

type BoardTaskCreateOptions struct {
	Title          string
	ProviderID     string
	RequestorEmail string
	RequestorName  string
}

func (e Engine) CreateBoardTask(ctx context.Context, opts BoardTaskCreateOptions) (domain.BoardTask, error) {
	if opts.Title == "" {
		return domain.BoardTask{}, errors.New("title is required")
	}
	if opts.ProviderID == "" {
		return domain.BoardTask{}, errors.New("provider is required")
	}
	if opts.RequestorEmail == "" {
		return domain.BoardTask{}, errors.New("requestor email is required")
	}
	if _, err := e.Repo.GetProvider(ctx, opts.ProviderID); err != nil {
		return domain.BoardTask{}, err
	}
	now := e.nowRFC3339()
	b := domain.BoardTask{
		ID:             uuid.New().String(),
		Title:          opts.Title,
		ProviderID:     opts.ProviderID,
		RequestorEmail: opts.RequestorEmail,
		RequestorName:  opts.RequestorName,
		Status:         domain.BoardPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := e.Repo.InsertBoardTask(ctx, b); err != nil {
		return domain.BoardTask{}, err
	}
	e.Audit.BestEffort(ctx, "board_task.created", "board_task", b.ID, opts.RequestorEmail, audit.Payload{
		"title":       b.Title,
		"provider_id": b.ProviderID,
	})
	return b, nil
}

// ResolveBoardTask moves a pending task to done or refused. Done carries an
// optional response comment and attachment URL; refused carries a reason.
// Only the responsible provider answers; admins may resolve on its behalf.
func (e Engine) ResolveBoardTask(ctx context.Context, id, status, comment, attachmentURL, refusalReason string, viewer session.Session) (domain.BoardTask, error) {
	if status != domain.BoardDone && status != domain.BoardRefused {
		return domain.BoardTask{}, fmt.Errorf("resolve status must be done or refused, got %q", status)
	}
	b, err := e.Repo.GetBoardTask(ctx, id)
	if err != nil {
		return domain.BoardTask{}, err
	}
	byProvider := viewer.ProviderID != nil && *viewer.ProviderID == b.ProviderID
	if !byProvider && !viewer.Admin {
		return b, errors.New("viewer holds no role on this board task")
	}
	if b.Status != domain.BoardPending {
		return b, fmt.Errorf("board task already %s", b.Status)
	}
	var commentPtr, attachmentPtr, refusalPtr *string
	if status == domain.BoardDone {
		commentPtr = optionalString(comment)
		attachmentPtr = optionalString(attachmentURL)
	} else {
		refusalPtr = optionalString(refusalReason)
	}
	now := e.nowRFC3339()
	if err := e.Repo.ResolveBoardTask(ctx, id, status, commentPtr, attachmentPtr, refusalPtr, now); err != nil {
		return b, err
	}
	e.Audit.BestEffort(ctx, "board_task.resolved", "board_task", id, viewer.Email, audit.Payload{"status": status})
	return e.Repo.GetBoardTask(ctx, id)
}

// ReopenBoardTask returns a resolved task to pending: both archive flags and
// the response/refusal payload are cleared so it reappears in both parties'
// active lists. Either party may reopen, so the check mirrors
// SetBoardTaskArchived rather than the provider-only resolve check.
func (e Engine) ReopenBoardTask(ctx context.Context, id string, viewer session.Session) (domain.BoardTask, error) {
	b, err := e.Repo.GetBoardTask(ctx, id)
	if err != nil {
		return domain.BoardTask{}, err
	}
	byProvider := viewer.ProviderID != nil && *viewer.ProviderID == b.ProviderID
	if !byProvider && viewer.Email != b.RequestorEmail && !viewer.Admin {
		return b, errors.New("viewer holds no role on this board task")
	}
	if b.Status == domain.BoardPending {
		return b, errors.New("board task is already pending")
	}
	if err := e.Repo.ReopenBoardTask(ctx, id, e.nowRFC3339()); err != nil {
		return b, err
	}
	e.Audit.BestEffort(ctx, "board_task.reopened", "board_task", id, viewer.Email, nil)
	return e.Repo.GetBoardTask(ctx, id)
}

// SetBoardTaskArchived flips the archive flag for the viewer's side only. A
// viewer holding the responsible-provider role archives archived_by_provider;
// a requestor archives archived_by_requestor. Admins without a role on the
// task fall back to the requestor-side flag.
func (e Engine) SetBoardTaskArchived(ctx context.Context, id string, viewer session.Session, archived bool) (domain.BoardTask, error) {
	b, err := e.Repo.GetBoardTask(ctx, id)
	if err != nil {
		return domain.BoardTask{}, err
	}
	byProvider := viewer.ProviderID != nil && *viewer.ProviderID == b.ProviderID
	if !byProvider && viewer.Email != b.RequestorEmail && !viewer.Admin {
		return b, errors.New("viewer holds no role on this board task")
	}
	if err := e.Repo.SetBoardTaskArchiveFlag(ctx, id, byProvider, archived, e.nowRFC3339()); err != nil {
		return b, err
	}
	action := "board_task.archived"
	if !archived {
		action = "board_task.restored"
	}
	e.Audit.BestEffort(ctx, action, "board_task", id, viewer.Email, audit.Payload{"by_provider": byProvider})
	return e.Repo.GetBoardTask(ctx, id)
}

func (e Engine) DeleteBoardTask(ctx context.Context, id, actorEmail string) error {
	if err := e.Repo.DeleteBoardTask(ctx, id); err != nil {
		return err
	}
	e.Audit.BestEffort(ctx, "board_task.deleted", "board_task", id, actorEmail, nil)
	return nil
}

// VisibleBoardTasks partitions tasks for one viewer. Non-admins see only
// tasks where they are the requestor or answer for the responsible provider.
// A task counts as archived-for-me when the flag of a role the viewer holds
// is set; admins holding no role are treated as holding both. viewMode picks
// the active or archived half of the partition.
func VisibleBoardTasks(all []domain.BoardTask, viewer session.Session, viewMode string) []domain.BoardTask {
	var out []domain.BoardTask
	for _, b := range all {
		isResponsible := viewer.ProviderID != nil && *viewer.ProviderID == b.ProviderID
		isRequestor := viewer.Email == b.RequestorEmail
		if !isResponsible && !isRequestor && !viewer.Admin {
			continue
		}
		archivedForMe := false
		if isResponsible && b.ArchivedByProvider {
			archivedForMe = true
		}
		if isRequestor && b.ArchivedByRequestor {
			archivedForMe = true
		}
		if viewer.Admin && !isResponsible && !isRequestor {
			archivedForMe = b.ArchivedByProvider || b.ArchivedByRequestor
		}
		if viewMode == ViewArchived {
			if archivedForMe {
				out = append(out, b)
			}
			continue
		}
		if !archivedForMe {
			out = append(out, b)
		}
	}
	return out
}
