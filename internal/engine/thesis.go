package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"holdingboard/internal/audit"
	"holdingboard/internal/domain"
)

type ThesisCreateOptions struct {
	Title          string
	CompanyID      string
	RiskScore      float64
	MonthlyRevenue float64
	ActorEmail     string
}

func (e Engine) CreateThesis(ctx context.Context, opts ThesisCreateOptions) (domain.Thesis, error) {
	if opts.Title == "" {
		return domain.Thesis{}, errors.New("title is required")
	}
	if opts.CompanyID != "" {
		if _, err := e.Repo.GetCompany(ctx, opts.CompanyID); err != nil {
			return domain.Thesis{}, err
		}
	}
	t := domain.Thesis{
		ID:             uuid.New().String(),
		Title:          opts.Title,
		CompanyID:      opts.CompanyID,
		RiskScore:      opts.RiskScore,
		MonthlyRevenue: opts.MonthlyRevenue,
		Status:         domain.ThesisDraft,
		CreatedAt:      e.nowRFC3339(),
	}
	if err := e.Repo.InsertThesis(ctx, t); err != nil {
		return domain.Thesis{}, err
	}
	e.Audit.BestEffort(ctx, "thesis.created", "thesis", t.ID, opts.ActorEmail, audit.Payload{"title": t.Title})
	return t, nil
}

// ApproveThesis approves a draft thesis and spawns its ON_TRACK project in
// the same transaction. The project carries an annualized revenue projection
// derived from the thesis monthly revenue. companyID overrides the thesis
// company when the project should land elsewhere in the group.
func (e Engine) ApproveThesis(ctx context.Context, id, companyID, actorEmail string) (domain.Thesis, domain.Project, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Thesis{}, domain.Project{}, err
	}
	defer tx.Rollback()

	t, err := e.Repo.GetThesisTx(ctx, tx, id)
	if err != nil {
		return domain.Thesis{}, domain.Project{}, err
	}
	if t.Status != domain.ThesisDraft {
		return t, domain.Project{}, fmt.Errorf("thesis already %s", t.Status)
	}
	if companyID == "" {
		companyID = t.CompanyID
	}
	if companyID == "" {
		return t, domain.Project{}, errors.New("company required to spawn project")
	}
	now := e.nowRFC3339()
	p := domain.Project{
		ID:         uuid.New().String(),
		CompanyID:  companyID,
		Name:       t.Title,
		Status:     domain.ProjectOnTrack,
		Investment: t.MonthlyRevenue * 12,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := e.Repo.InsertProjectTx(ctx, tx, p); err != nil {
		return t, domain.Project{}, err
	}
	if err := e.Repo.ResolveThesisTx(ctx, tx, id, domain.ThesisApproved, &p.ID); err != nil {
		return t, domain.Project{}, err
	}
	if err := e.Audit.Append(ctx, tx, "thesis.approved", "thesis", id, actorEmail, audit.Payload{
		"project_id": p.ID,
	}); err != nil {
		return t, domain.Project{}, err
	}
	if err := tx.Commit(); err != nil {
		return t, domain.Project{}, err
	}
	t.Status = domain.ThesisApproved
	t.ProjectID = &p.ID
	return t, p, nil
}

func (e Engine) RejectThesis(ctx context.Context, id, actorEmail string) (domain.Thesis, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Thesis{}, err
	}
	defer tx.Rollback()

	t, err := e.Repo.GetThesisTx(ctx, tx, id)
	if err != nil {
		return domain.Thesis{}, err
	}
	if t.Status != domain.ThesisDraft {
		return t, fmt.Errorf("thesis already %s", t.Status)
	}
	if err := e.Repo.ResolveThesisTx(ctx, tx, id, domain.ThesisRejected, nil); err != nil {
		return t, err
	}
	if err := e.Audit.Append(ctx, tx, "thesis.rejected", "thesis", id, actorEmail, nil); err != nil {
		return t, err
	}
	if err := tx.Commit(); err != nil {
		return t, err
	}
	t.Status = domain.ThesisRejected
	return t, nil
}

func (e Engine) DeleteThesis(ctx context.Context, id, actorEmail string) error {
	if err := e.Repo.DeleteThesis(ctx, id); err != nil {
		return err
	}
	e.Audit.BestEffort(ctx, "thesis.deleted", "thesis", id, actorEmail, nil)
	return nil
}
