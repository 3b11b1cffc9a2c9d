package server

import (
	"context"
	"fmt"
	"net/http"
	"path"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"holdingboard/internal/domain"
	"holdingboard/internal/engine"
	"holdingboard/internal/filestore"
	"holdingboard/internal/repo"
)

func registerTheses(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-thesis",
		Method:        http.MethodPost,
		Path:          "/theses",
		Summary:       "Create a draft thesis",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body CreateThesisRequest `json:"body"`
	}) (*struct {
		Body domain.Thesis `json:"body"`
	}, error) {
		s, authErr := viewerFromContext(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		t, err := e.CreateThesis(ctx, engine.ThesisCreateOptions{
			Title:          input.Body.Title,
			CompanyID:      input.Body.CompanyID,
			RiskScore:      input.Body.RiskScore,
			MonthlyRevenue: input.Body.MonthlyRevenue,
			ActorEmail:     s.Email,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Thesis `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-theses",
		Method:      http.MethodGet,
		Path:        "/theses",
		Summary:     "List theses",
	}, func(ctx context.Context, input *struct {
		CompanyID string `query:"company_id"`
		Status    string `query:"status" enum:"DRAFT,APPROVED,REJECTED"`
	}) (*struct {
		Body thesisList `json:"body"`
	}, error) {
		if _, authErr := viewerFromContext(ctx, e); authErr != nil {
			return nil, authErr
		}
		items, err := e.Repo.ListTheses(ctx, repo.ThesisFilters{
			CompanyID: input.CompanyID,
			Status:    input.Status,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body thesisList `json:"body"`
		}{Body: thesisList{Items: orEmpty(items)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-thesis",
		Method:      http.MethodGet,
		Path:        "/theses/{thesis_id}",
		Summary:     "Get thesis",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ThesisID string `path:"thesis_id"`
	}) (*struct {
		Body domain.Thesis `json:"body"`
	}, error) {
		if _, authErr := viewerFromContext(ctx, e); authErr != nil {
			return nil, authErr
		}
		t, err := e.Repo.GetThesis(ctx, input.ThesisID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Thesis `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "approve-thesis",
		Method:      http.MethodPost,
		Path:        "/theses/{thesis_id}/approve",
		Summary:     "Approve a thesis, spawning its project",
		Errors:      []int{http.StatusBadRequest, http.StatusConflict, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ThesisID string               `path:"thesis_id"`
		Body     ApproveThesisRequest `json:"body"`
	}) (*struct {
		Body approveThesisResponse `json:"body"`
	}, error) {
		s, authErr := requireAdmin(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		t, p, err := e.ApproveThesis(ctx, input.ThesisID, input.Body.CompanyID, s.Email)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body approveThesisResponse `json:"body"`
		}{Body: approveThesisResponse{Thesis: t, Project: p}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reject-thesis",
		Method:      http.MethodPost,
		Path:        "/theses/{thesis_id}/reject",
		Summary:     "Reject a thesis",
		Errors:      []int{http.StatusConflict, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ThesisID string `path:"thesis_id"`
	}) (*struct {
		Body domain.Thesis `json:"body"`
	}, error) {
		s, authErr := requireAdmin(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		t, err := e.RejectThesis(ctx, input.ThesisID, s.Email)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Thesis `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-thesis",
		Method:      http.MethodDelete,
		Path:        "/theses/{thesis_id}",
		Summary:     "Delete thesis",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ThesisID string `path:"thesis_id"`
	}) (*struct{}, error) {
		s, authErr := requireAdmin(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteThesis(ctx, input.ThesisID, s.Email); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerRegulatoryDocs(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-regulatory-doc",
		Method:        http.MethodPost,
		Path:          "/regulatory-docs",
		Summary:       "Register a regulatory document",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body CreateRegulatoryDocRequest `json:"body"`
	}) (*struct {
		Body domain.RegulatoryDoc `json:"body"`
	}, error) {
		s, authErr := requireAdmin(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		d, err := e.CreateRegulatoryDoc(ctx, engine.RegulatoryDocCreateOptions{
			CompanyID:  input.Body.CompanyID,
			Category:   input.Body.Category,
			Status:     input.Body.Status,
			Expiration: input.Body.Expiration,
			FileURL:    input.Body.FileURL,
			ActorEmail: s.Email,
		})
		if err != nil {
			return nil, handleError(err)
		}
		d.Staleness = engine.ClassifyStaleness(d.Expiration, e.Now(), e.Config.ExpiringWindowDays())
		return &struct {
			Body domain.RegulatoryDoc `json:"body"`
		}{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-regulatory-docs",
		Method:      http.MethodGet,
		Path:        "/regulatory-docs",
		Summary:     "List regulatory documents with staleness",
	}, func(ctx context.Context, input *struct {
		CompanyID string `query:"company_id"`
		Category  string `query:"category"`
	}) (*struct {
		Body regulatoryDocList `json:"body"`
	}, error) {
		if _, authErr := viewerFromContext(ctx, e); authErr != nil {
			return nil, authErr
		}
		items, err := e.Repo.ListRegulatoryDocs(ctx, repo.RegulatoryDocFilters{
			CompanyID: input.CompanyID,
			Category:  input.Category,
		})
		if err != nil {
			return nil, handleError(err)
		}
		now := e.Now()
		window := e.Config.ExpiringWindowDays()
		for i := range items {
			items[i].Staleness = engine.ClassifyStaleness(items[i].Expiration, now, window)
		}
		return &struct {
			Body regulatoryDocList `json:"body"`
		}{Body: regulatoryDocList{Items: orEmpty(items)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-regulatory-doc",
		Method:      http.MethodPatch,
		Path:        "/regulatory-docs/{doc_id}",
		Summary:     "Update regulatory document",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		DocID string                     `path:"doc_id"`
		Body  UpdateRegulatoryDocRequest `json:"body"`
	}) (*struct {
		Body domain.RegulatoryDoc `json:"body"`
	}, error) {
		s, authErr := requireAdmin(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		u := repo.RegulatoryDocUpdate{
			Status:  input.Body.Status,
			FileURL: input.Body.FileURL,
		}
		if input.Body.Expiration != nil {
			if *input.Body.Expiration == "" {
				u.ClearExpiration = true
			} else {
				u.Expiration = input.Body.Expiration
			}
		}
		d, err := e.UpdateRegulatoryDoc(ctx, input.DocID, u, s.Email)
		if err != nil {
			return nil, handleError(err)
		}
		d.Staleness = engine.ClassifyStaleness(d.Expiration, e.Now(), e.Config.ExpiringWindowDays())
		return &struct {
			Body domain.RegulatoryDoc `json:"body"`
		}{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-regulatory-doc",
		Method:      http.MethodDelete,
		Path:        "/regulatory-docs/{doc_id}",
		Summary:     "Delete regulatory document",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		DocID string `path:"doc_id"`
	}) (*struct{}, error) {
		s, authErr := requireAdmin(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteRegulatoryDoc(ctx, input.DocID, s.Email); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerAudit(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-audit-entries",
		Method:      http.MethodGet,
		Path:        "/audit",
		Summary:     "Latest audit entries, newest first",
	}, func(ctx context.Context, input *struct {
		Limit      int    `query:"limit" minimum:"1" maximum:"500" default:"50"`
		Type       string `query:"type"`
		EntityKind string `query:"entity_kind"`
		EntityID   string `query:"entity_id"`
	}) (*struct {
		Body auditList `json:"body"`
	}, error) {
		if _, authErr := viewerFromContext(ctx, e); authErr != nil {
			return nil, authErr
		}
		limit := input.Limit
		if limit <= 0 {
			limit = 50
		}
		items, err := e.Repo.LatestAuditEntries(ctx, limit, input.Type, input.EntityKind, input.EntityID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body auditList `json:"body"`
		}{Body: auditList{Items: orEmpty(items)}}, nil
	})
}

func registerUploads(api huma.API, e engine.Engine, files filestore.Store) {
	huma.Register(api, huma.Operation{
		OperationID:   "upload-file",
		Method:        http.MethodPost,
		Path:          "/uploads",
		Summary:       "Store a file and return its public URL",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Filename string `header:"X-Filename"`
		RawBody  []byte
	}) (*struct {
		Body uploadResponse `json:"body"`
	}, error) {
		if _, authErr := viewerFromContext(ctx, e); authErr != nil {
			return nil, authErr
		}
		if len(input.RawBody) == 0 {
			return nil, huma.NewError(http.StatusBadRequest, "empty upload body")
		}
		name := path.Base(input.Filename)
		if name == "" || name == "." || name == "/" {
			name = "upload.bin"
		}
		key := fmt.Sprintf("%s/%s", uuid.NewString(), name)
		url, err := files.Upload(key, input.RawBody)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body uploadResponse `json:"body"`
		}{Body: uploadResponse{URL: url}}, nil
	})
}
