package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"holdingboard/internal/docspace"
	"holdingboard/internal/domain"
	"holdingboard/internal/engine"
	"holdingboard/internal/repo"
)

func registerCompanies(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-company",
		Method:        http.MethodPost,
		Path:          "/companies",
		Summary:       "Create company",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		Body CreateCompanyRequest `json:"body"`
	}) (*struct {
		Body domain.Company `json:"body"`
	}, error) {
		s, authErr := requireAdmin(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		c, err := e.CreateCompany(ctx, input.Body.Name, input.Body.Sector, s.Email)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Company `json:"body"`
		}{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-companies",
		Method:      http.MethodGet,
		Path:        "/companies",
		Summary:     "List companies",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body companyList `json:"body"`
	}, error) {
		if _, authErr := viewerFromContext(ctx, e); authErr != nil {
			return nil, authErr
		}
		items, err := e.Repo.ListCompanies(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body companyList `json:"body"`
		}{Body: companyList{Items: orEmpty(items)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-company",
		Method:      http.MethodGet,
		Path:        "/companies/{company_id}",
		Summary:     "Get company",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		CompanyID string `path:"company_id"`
	}) (*struct {
		Body domain.Company `json:"body"`
	}, error) {
		if _, authErr := viewerFromContext(ctx, e); authErr != nil {
			return nil, authErr
		}
		c, err := e.Repo.GetCompany(ctx, input.CompanyID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Company `json:"body"`
		}{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-company",
		Method:      http.MethodPatch,
		Path:        "/companies/{company_id}",
		Summary:     "Update company",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		CompanyID string               `path:"company_id"`
		Body      UpdateCompanyRequest `json:"body"`
	}) (*struct {
		Body domain.Company `json:"body"`
	}, error) {
		s, authErr := requireAdmin(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		c, err := e.UpdateCompany(ctx, input.CompanyID, input.Body.Name, input.Body.Sector, s.Email)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Company `json:"body"`
		}{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-company",
		Method:      http.MethodDelete,
		Path:        "/companies/{company_id}",
		Summary:     "Delete company",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		CompanyID string `path:"company_id"`
	}) (*struct{}, error) {
		s, authErr := requireAdmin(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteCompany(ctx, input.CompanyID, s.Email); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "company-compliance",
		Method:      http.MethodGet,
		Path:        "/companies/{company_id}/compliance",
		Summary:     "Compliance status per configured category",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		CompanyID string `path:"company_id"`
	}) (*struct {
		Body engine.ComplianceSummary `json:"body"`
	}, error) {
		if _, authErr := viewerFromContext(ctx, e); authErr != nil {
			return nil, authErr
		}
		summary, err := e.ComplianceStatus(ctx, input.CompanyID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.ComplianceSummary `json:"body"`
		}{Body: summary}, nil
	})
}

func registerProviders(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-provider",
		Method:        http.MethodPost,
		Path:          "/providers",
		Summary:       "Create provider",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		Body CreateProviderRequest `json:"body"`
	}) (*struct {
		Body domain.Provider `json:"body"`
	}, error) {
		s, authErr := requireAdmin(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		p, err := e.CreateProvider(ctx, input.Body.Name, input.Body.Kind, input.Body.CapacitySlots, s.Email)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Provider `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-providers",
		Method:      http.MethodGet,
		Path:        "/providers",
		Summary:     "List providers",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body providerList `json:"body"`
	}, error) {
		if _, authErr := viewerFromContext(ctx, e); authErr != nil {
			return nil, authErr
		}
		items, err := e.Repo.ListProviders(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body providerList `json:"body"`
		}{Body: providerList{Items: orEmpty(items)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-provider",
		Method:      http.MethodPatch,
		Path:        "/providers/{provider_id}",
		Summary:     "Update provider",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProviderID string                `path:"provider_id"`
		Body       UpdateProviderRequest `json:"body"`
	}) (*struct {
		Body domain.Provider `json:"body"`
	}, error) {
		s, authErr := requireAdmin(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		p, err := e.UpdateProvider(ctx, input.ProviderID, input.Body.Name, input.Body.CapacitySlots, s.Email)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Provider `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-provider",
		Method:      http.MethodDelete,
		Path:        "/providers/{provider_id}",
		Summary:     "Delete provider",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProviderID string `path:"provider_id"`
	}) (*struct{}, error) {
		s, authErr := requireAdmin(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteProvider(ctx, input.ProviderID, s.Email); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "provider-load",
		Method:      http.MethodGet,
		Path:        "/providers/load",
		Summary:     "Capacity and allocations per provider",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body providerLoadList `json:"body"`
	}, error) {
		if _, authErr := viewerFromContext(ctx, e); authErr != nil {
			return nil, authErr
		}
		providers, err := e.Repo.ListProviders(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		projects, err := e.Repo.ListProjects(ctx, repo.ProjectFilters{})
		if err != nil {
			return nil, handleError(err)
		}
		tasks, err := e.Repo.ListTasks(ctx, repo.TaskFilters{})
		if err != nil {
			return nil, handleError(err)
		}
		loads := make([]engine.ProviderLoad, 0, len(providers))
		for _, p := range providers {
			loads = append(loads, engine.ComputeProviderLoad(p, projects, tasks))
		}
		return &struct {
			Body providerLoadList `json:"body"`
		}{Body: providerLoadList{Items: loads}}, nil
	})
}

func registerProjects(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-project",
		Method:        http.MethodPost,
		Path:          "/projects",
		Summary:       "Create project or phase",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body CreateProjectRequest `json:"body"`
	}) (*struct {
		Body domain.Project `json:"body"`
	}, error) {
		s, authErr := viewerFromContext(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		p, err := e.CreateProject(ctx, engine.ProjectCreateOptions{
			CompanyID:     input.Body.CompanyID,
			Name:          input.Body.Name,
			ParentID:      input.Body.ParentID,
			ProviderID:    input.Body.ProviderID,
			Status:        input.Body.Status,
			Investment:    input.Body.Investment,
			MonthlyCost:   input.Body.MonthlyCost,
			ExternalDocID: input.Body.ExternalDocID,
			Timeline:      input.Body.Timeline,
			ActorEmail:    s.Email,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Project `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List projects",
	}, func(ctx context.Context, input *struct {
		CompanyID  string `query:"company_id"`
		ProviderID string `query:"provider_id"`
		Status     string `query:"status"`
		ParentID   string `query:"parent_id"`
		RootsOnly  bool   `query:"roots_only"`
	}) (*struct {
		Body projectList `json:"body"`
	}, error) {
		if _, authErr := viewerFromContext(ctx, e); authErr != nil {
			return nil, authErr
		}
		items, err := e.Repo.ListProjects(ctx, repo.ProjectFilters{
			CompanyID:  input.CompanyID,
			ProviderID: input.ProviderID,
			Status:     input.Status,
			ParentID:   input.ParentID,
			RootsOnly:  input.RootsOnly,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body projectList `json:"body"`
		}{Body: projectList{Items: orEmpty(items)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}",
		Summary:     "Get project",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body domain.Project `json:"body"`
	}, error) {
		if _, authErr := viewerFromContext(ctx, e); authErr != nil {
			return nil, authErr
		}
		p, err := e.Repo.GetProject(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Project `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-project",
		Method:      http.MethodPatch,
		Path:        "/projects/{project_id}",
		Summary:     "Update project",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string               `path:"project_id"`
		Body      UpdateProjectRequest `json:"body"`
	}) (*struct {
		Body domain.Project `json:"body"`
	}, error) {
		s, authErr := viewerFromContext(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		u := repo.ProjectUpdate{
			Name:          input.Body.Name,
			Status:        input.Body.Status,
			Investment:    input.Body.Investment,
			MonthlyCost:   input.Body.MonthlyCost,
			ExternalDocID: input.Body.ExternalDocID,
			Timeline:      input.Body.Timeline,
		}
		if input.Body.ProviderID != nil {
			if *input.Body.ProviderID == "" {
				u.ClearProvider = true
			} else {
				u.ProviderID = input.Body.ProviderID
			}
		}
		p, err := e.UpdateProject(ctx, input.ProjectID, u, s.Email)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Project `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-project",
		Method:      http.MethodDelete,
		Path:        "/projects/{project_id}",
		Summary:     "Delete project",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct{}, error) {
		s, authErr := viewerFromContext(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteProject(ctx, input.ProjectID, s.Email); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerProgress(api huma.API, e engine.Engine, docs *docspace.Client) {
	huma.Register(api, huma.Operation{
		OperationID: "portfolio-progress",
		Method:      http.MethodGet,
		Path:        "/projects/progress",
		Summary:     "Progress from external documentation pages",
		Errors:      []int{http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		CompanyID string `query:"company_id"`
	}) (*struct {
		Body projectProgressList `json:"body"`
	}, error) {
		if _, authErr := viewerFromContext(ctx, e); authErr != nil {
			return nil, authErr
		}
		if docs == nil {
			return nil, huma.NewError(http.StatusConflict, "docspace is not configured")
		}
		items, err := e.PortfolioProgress(ctx, docs, repo.ProjectFilters{CompanyID: input.CompanyID})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body projectProgressList `json:"body"`
		}{Body: projectProgressList{Items: orEmpty(items)}}, nil
	})
}

func registerTasks(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/tasks",
		Summary:       "Create task",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body CreateTaskRequest `json:"body"`
	}) (*struct {
		Body domain.Task `json:"body"`
	}, error) {
		s, authErr := viewerFromContext(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		t, err := e.CreateTask(ctx, engine.TaskCreateOptions{
			Title:      input.Body.Title,
			ProviderID: input.Body.ProviderID,
			ProjectID:  input.Body.ProjectID,
			DueDate:    input.Body.DueDate,
			ActorEmail: s.Email,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Task `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List tasks",
	}, func(ctx context.Context, input *struct {
		ProviderID string `query:"provider_id"`
		ProjectID  string `query:"project_id"`
		Status     string `query:"status"`
	}) (*struct {
		Body taskList `json:"body"`
	}, error) {
		if _, authErr := viewerFromContext(ctx, e); authErr != nil {
			return nil, authErr
		}
		items, err := e.Repo.ListTasks(ctx, repo.TaskFilters{
			ProviderID: input.ProviderID,
			ProjectID:  input.ProjectID,
			Status:     input.Status,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body taskList `json:"body"`
		}{Body: taskList{Items: orEmpty(items)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPatch,
		Path:        "/tasks/{task_id}",
		Summary:     "Update task",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TaskID string            `path:"task_id"`
		Body   UpdateTaskRequest `json:"body"`
	}) (*struct {
		Body domain.Task `json:"body"`
	}, error) {
		s, authErr := viewerFromContext(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		u := repo.TaskUpdate{
			Title:  input.Body.Title,
			Status: input.Body.Status,
		}
		if input.Body.ProviderID != nil {
			if *input.Body.ProviderID == "" {
				u.ClearProvider = true
			} else {
				u.ProviderID = input.Body.ProviderID
			}
		}
		if input.Body.DueDate != nil {
			if *input.Body.DueDate == "" {
				u.ClearDueDate = true
			} else {
				u.DueDate = input.Body.DueDate
			}
		}
		t, err := e.UpdateTask(ctx, input.TaskID, u, s.Email)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Task `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "complete-task",
		Method:      http.MethodPost,
		Path:        "/tasks/{task_id}/complete",
		Summary:     "Complete task with project rollup",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TaskID string `path:"task_id"`
	}) (*struct {
		Body domain.Task `json:"body"`
	}, error) {
		s, authErr := viewerFromContext(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		t, err := e.CompleteTask(ctx, input.TaskID, s.Email)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Task `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-task",
		Method:      http.MethodDelete,
		Path:        "/tasks/{task_id}",
		Summary:     "Delete task",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TaskID string `path:"task_id"`
	}) (*struct{}, error) {
		s, authErr := viewerFromContext(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteTask(ctx, input.TaskID, s.Email); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}
