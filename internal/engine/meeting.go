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

func (e Engine) CreateMeeting(ctx context.Context, meetingContext, date, actorEmail string) (domain.Meeting, error) {
	if date == "" {
		return domain.Meeting{}, errors.New("date is required")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return domain.Meeting{}, fmt.Errorf("date: %w", err)
	}
	m := domain.Meeting{
		ID:        uuid.New().String(),
		Context:   meetingContext,
		Date:      date,
		Status:    domain.MeetingScheduled,
		CreatedAt: e.nowRFC3339(),
	}
	if err := e.Repo.InsertMeeting(ctx, m); err != nil {
		return domain.Meeting{}, err
	}
	e.Audit.BestEffort(ctx, "meeting.created", "meeting", m.ID, actorEmail, audit.Payload{"date": m.Date})
	return m, nil
}

func (e Engine) AddMeetingItem(ctx context.Context, meetingID, list, text, actorEmail string) (domain.MeetingItem, error) {
	switch list {
	case "provider_agenda", "requestor_agenda", "general":
	default:
		return domain.MeetingItem{}, fmt.Errorf("unknown meeting list %q", list)
	}
	if text == "" {
		return domain.MeetingItem{}, errors.New("text is required")
	}
	if _, err := e.Repo.GetMeeting(ctx, meetingID); err != nil {
		return domain.MeetingItem{}, err
	}
	existing, err := e.Repo.ListMeetingItems(ctx, meetingID, list)
	if err != nil {
		return domain.MeetingItem{}, err
	}
	it := domain.MeetingItem{
		ID:        uuid.New().String(),
		MeetingID: meetingID,
		List:      list,
		Position:  len(existing),
		Text:      text,
	}
	if err := e.Repo.InsertMeetingItem(ctx, it); err != nil {
		return domain.MeetingItem{}, err
	}
	e.Audit.BestEffort(ctx, "meeting.item.added", "meeting", meetingID, actorEmail, audit.Payload{"list": list})
	return it, nil
}

func (e Engine) AddMeetingDecision(ctx context.Context, meetingID, text, responsibleProviderID, actorEmail string) (domain.MeetingDecision, error) {
	if text == "" {
		return domain.MeetingDecision{}, errors.New("text is required")
	}
	if _, err := e.Repo.GetMeeting(ctx, meetingID); err != nil {
		return domain.MeetingDecision{}, err
	}
	if responsibleProviderID != "" {
		if _, err := e.Repo.GetProvider(ctx, responsibleProviderID); err != nil {
			return domain.MeetingDecision{}, err
		}
	}
	existing, err := e.Repo.ListMeetingDecisions(ctx, meetingID)
	if err != nil {
		return domain.MeetingDecision{}, err
	}
	d := domain.MeetingDecision{
		ID:                    uuid.New().String(),
		MeetingID:             meetingID,
		Position:              len(existing),
		Text:                  text,
		ResponsibleProviderID: optionalString(responsibleProviderID),
	}
	if err := e.Repo.InsertMeetingDecision(ctx, d); err != nil {
		return domain.MeetingDecision{}, err
	}
	e.Audit.BestEffort(ctx, "meeting.decision.added", "meeting", meetingID, actorEmail, nil)
	return d, nil
}

// MoveItem returns a copy of items with the element carrying fromID spliced
// in front of the slot currently held by toID. Keyed by id, not index, so a
// stale position column cannot misplace the move. Missing or equal ids make
// it a no-op.
func MoveItem(items []domain.MeetingItem, fromID, toID string) []domain.MeetingItem {
	if fromID == toID {
		return items
	}
	from, to := -1, -1
	for i, it := range items {
		if it.ID == fromID {
			from = i
		}
		if it.ID == toID {
			to = i
		}
	}
	if from < 0 || to < 0 {
		return items
	}
	moved := items[from]
	rest := make([]domain.MeetingItem, 0, len(items)-1)
	rest = append(rest, items[:from]...)
	rest = append(rest, items[from+1:]...)
	// The target index is re-found after removal so moving downward still
	// lands in front of the toID element.
	at := len(rest)
	for i, it := range rest {
		if it.ID == toID {
			at = i
			break
		}
	}
	out := make([]domain.MeetingItem, 0, len(items))
	out = append(out, rest[:at]...)
	out = append(out, moved)
	out = append(out, rest[at:]...)
	return out
}

// ReorderItems applies a MoveItem splice to one of a meeting's lists and
// persists the new positions.
func (e Engine) ReorderItems(ctx context.Context, meetingID, list, fromID, toID, actorEmail string) ([]domain.MeetingItem, error) {
	items, err := e.Repo.ListMeetingItems(ctx, meetingID, list)
	if err != nil {
		return nil, err
	}
	moved := MoveItem(items, fromID, toID)
	if err := e.Repo.ReplaceItemPositions(ctx, moved); err != nil {
		return nil, err
	}
	for i := range moved {
		moved[i].Position = i
	}
	e.Audit.BestEffort(ctx, "meeting.items.reordered", "meeting", meetingID, actorEmail, audit.Payload{"list": list})
	return moved, nil
}

// FinalizeMeeting closes a meeting and converts its unprocessed decisions
// into board tasks. Only decisions with both text and a responsible provider
// are delegated; the rest stay recorded but unprocessed. The processed flag
// makes repeat finalize calls create nothing new. Returns the created task
// count.
func (e Engine) FinalizeMeeting(ctx context.Context, meetingID, actorEmail string) (domain.Meeting, int, error) {
	m, err := e.Repo.GetMeeting(ctx, meetingID)
	if err != nil {
		return domain.Meeting{}, 0, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return m, 0, err
	}
	defer tx.Rollback()

	decisions, err := e.Repo.ListMeetingDecisionsTx(ctx, tx, meetingID)
	if err != nil {
		return m, 0, err
	}
	now := e.nowRFC3339()
	created := 0
	for _, d := range decisions {
		if d.Processed || d.Text == "" || d.ResponsibleProviderID == nil {
			continue
		}
		b := domain.BoardTask{
			ID:             uuid.New().String(),
			Title:          d.Text,
			ProviderID:     *d.ResponsibleProviderID,
			RequestorEmail: actorEmail,
			Status:         domain.BoardPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := e.Repo.InsertBoardTaskTx(ctx, tx, b); err != nil {
			return m, created, err
		}
		if err := e.Repo.MarkDecisionProcessedTx(ctx, tx, d.ID); err != nil {
			return m, created, err
		}
		created++
	}
	if err := e.Repo.SetMeetingStatusTx(ctx, tx, meetingID, domain.MeetingCompleted); err != nil {
		return m, created, err
	}
	if err := e.Audit.Append(ctx, tx, "meeting.finalized", "meeting", meetingID, actorEmail, audit.Payload{
		"created_tasks": created,
	}); err != nil {
		return m, created, err
	}
	if err := tx.Commit(); err != nil {
		return m, created, err
	}
	return e.refreshedMeeting(ctx, meetingID, created)
}

func (e Engine) refreshedMeeting(ctx context.Context, meetingID string, created int) (domain.Meeting, int, error) {
	m, err := e.Repo.GetMeeting(ctx, meetingID)
	return m, created, err
}

func (e Engine) DeleteMeeting(ctx context.Context, id, actorEmail string) error {
	if err := e.Repo.DeleteMeeting(ctx, id); err != nil {
		return err
	}
	e.Audit.BestEffort(ctx, "meeting.deleted", "meeting", id, actorEmail, nil)
	return nil
}
