package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"holdingboard/internal/audit"
	"holdingboard/internal/config"
	"holdingboard/internal/domain"
	"holdingboard/internal/repo"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Audit  audit.Writer
	Config *config.Config
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Audit:  audit.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) nowRFC3339() string {
	return e.now().UTC().Format(time.RFC3339)
}

func (e Engine) today() string {
	return e.now().UTC().Format("2006-01-02")
}

// --- companies ---

func (e Engine) CreateCompany(ctx context.Context, name, sector, actorEmail string) (domain.Company, error) {
	if name == "" {
		return domain.Company{}, errors.New("name is required")
	}
	c := domain.Company{
		ID:        uuid.New().String(),
		Name:      name,
		Sector:    sector,
		CreatedAt: e.nowRFC3339(),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Company{}, err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `INSERT INTO companies(id,name,sector,created_at) VALUES (?,?,?,?)`,
		c.ID, c.Name, nullable(c.Sector), c.CreatedAt); err != nil {
		return domain.Company{}, fmt.Errorf("insert company: %w", err)
	}
	if err := e.Audit.Append(ctx, tx, "company.created", "company", c.ID, actorEmail, audit.Payload{"name": c.Name}); err != nil {
		return domain.Company{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Company{}, err
	}
	return c, nil
}

func (e Engine) UpdateCompany(ctx context.Context, id string, name, sector *string, actorEmail string) (domain.Company, error) {
	if err := e.Repo.UpdateCompany(ctx, id, name, sector); err != nil {
		return domain.Company{}, err
	}
	e.Audit.BestEffort(ctx, "company.updated", "company", id, actorEmail, nil)
	return e.Repo.GetCompany(ctx, id)
}

func (e Engine) DeleteCompany(ctx context.Context, id, actorEmail string) error {
	if err := e.Repo.DeleteCompany(ctx, id); err != nil {
		return err
	}
	e.Audit.BestEffort(ctx, "company.deleted", "company", id, actorEmail, nil)
	return nil
}

// --- providers ---

func (e Engine) CreateProvider(ctx context.Context, name, kind string, capacitySlots int, actorEmail string) (domain.Provider, error) {
	if name == "" {
		return domain.Provider{}, errors.New("name is required")
	}
	if kind != domain.ProviderInternalSquad && kind != domain.ProviderExternalPartner {
		return domain.Provider{}, fmt.Errorf("unknown provider kind %q", kind)
	}
	p := domain.Provider{
		ID:            uuid.New().String(),
		Name:          name,
		Kind:          kind,
		CapacitySlots: capacitySlots,
		CreatedAt:     e.nowRFC3339(),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Provider{}, err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `INSERT INTO providers(id,name,kind,capacity_slots,created_at) VALUES (?,?,?,?,?)`,
		p.ID, p.Name, p.Kind, p.CapacitySlots, p.CreatedAt); err != nil {
		return domain.Provider{}, fmt.Errorf("insert provider: %w", err)
	}
	if err := e.Audit.Append(ctx, tx, "provider.created", "provider", p.ID, actorEmail, audit.Payload{"name": p.Name, "kind": p.Kind}); err != nil {
		return domain.Provider{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Provider{}, err
	}
	return p, nil
}

func (e Engine) UpdateProvider(ctx context.Context, id string, name *string, capacitySlots *int, actorEmail string) (domain.Provider, error) {
	if err := e.Repo.UpdateProvider(ctx, id, name, capacitySlots); err != nil {
		return domain.Provider{}, err
	}
	e.Audit.BestEffort(ctx, "provider.updated", "provider", id, actorEmail, nil)
	return e.Repo.GetProvider(ctx, id)
}

func (e Engine) DeleteProvider(ctx context.Context, id, actorEmail string) error {
	if err := e.Repo.DeleteProvider(ctx, id); err != nil {
		return err
	}
	e.Audit.BestEffort(ctx, "provider.deleted", "provider", id, actorEmail, nil)
	return nil
}

// --- regulatory docs ---

type RegulatoryDocCreateOptions struct {
	CompanyID  string
	Category   string
	Status     string
	Expiration string
	FileURL    string
	ActorEmail string
}

func (e Engine) CreateRegulatoryDoc(ctx context.Context, opts RegulatoryDocCreateOptions) (domain.RegulatoryDoc, error) {
	if opts.CompanyID == "" {
		return domain.RegulatoryDoc{}, errors.New("company is required")
	}
	if opts.Category == "" {
		return domain.RegulatoryDoc{}, errors.New("category is required")
	}
	if _, err := e.Repo.GetCompany(ctx, opts.CompanyID); err != nil {
		return domain.RegulatoryDoc{}, err
	}
	if opts.Status == "" {
		opts.Status = domain.DocMissing
	}
	if opts.Status != domain.DocValid && opts.Status != domain.DocMissing {
		return domain.RegulatoryDoc{}, fmt.Errorf("unknown doc status %q", opts.Status)
	}
	if opts.Expiration != "" {
		if _, err := time.Parse("2006-01-02", opts.Expiration); err != nil {
			return domain.RegulatoryDoc{}, fmt.Errorf("expiration: %w", err)
		}
	}
	d := domain.RegulatoryDoc{
		ID:         uuid.New().String(),
		CompanyID:  opts.CompanyID,
		Category:   opts.Category,
		Status:     opts.Status,
		Expiration: optionalString(opts.Expiration),
		FileURL:    optionalString(opts.FileURL),
		CreatedAt:  e.nowRFC3339(),
	}
	if err := e.Repo.InsertRegulatoryDoc(ctx, d); err != nil {
		return domain.RegulatoryDoc{}, err
	}
	e.Audit.BestEffort(ctx, "regulatory_doc.created", "regulatory_doc", d.ID, opts.ActorEmail, audit.Payload{
		"company_id": d.CompanyID,
		"category":   d.Category,
	})
	return d, nil
}

func (e Engine) UpdateRegulatoryDoc(ctx context.Context, id string, u repo.RegulatoryDocUpdate, actorEmail string) (domain.RegulatoryDoc, error) {
	if u.Status != nil && *u.Status != domain.DocValid && *u.Status != domain.DocMissing {
		return domain.RegulatoryDoc{}, fmt.Errorf("unknown doc status %q", *u.Status)
	}
	if err := e.Repo.UpdateRegulatoryDocFields(ctx, id, u); err != nil {
		return domain.RegulatoryDoc{}, err
	}
	e.Audit.BestEffort(ctx, "regulatory_doc.updated", "regulatory_doc", id, actorEmail, nil)
	return e.Repo.GetRegulatoryDoc(ctx, id)
}

func (e Engine) DeleteRegulatoryDoc(ctx context.Context, id, actorEmail string) error {
	if err := e.Repo.DeleteRegulatoryDoc(ctx, id); err != nil {
		return err
	}
	e.Audit.BestEffort(ctx, "regulatory_doc.deleted", "regulatory_doc", id, actorEmail, nil)
	return nil
}

// --- helpers ---

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
