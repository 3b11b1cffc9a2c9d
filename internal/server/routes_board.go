package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"holdingboard/internal/domain"
	"holdingboard/internal/engine"
	"holdingboard/internal/repo"
)

func registerBoardTasks(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-board-task",
		Method:        http.MethodPost,
		Path:          "/board-tasks",
		Summary:       "Delegate a task to a provider",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body CreateBoardTaskRequest `json:"body"`
	}) (*struct {
		Body domain.BoardTask `json:"body"`
	}, error) {
		s, authErr := viewerFromContext(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		b, err := e.CreateBoardTask(ctx, engine.BoardTaskCreateOptions{
			Title:          input.Body.Title,
			ProviderID:     input.Body.ProviderID,
			RequestorEmail: s.Email,
			RequestorName:  s.Name,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.BoardTask `json:"body"`
		}{Body: b}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-board-tasks",
		Method:      http.MethodGet,
		Path:        "/board-tasks",
		Summary:     "List board tasks visible to the caller",
	}, func(ctx context.Context, input *struct {
		View string `query:"view" enum:"active,archived" default:"active"`
	}) (*struct {
		Body boardTaskList `json:"body"`
	}, error) {
		s, authErr := viewerFromContext(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		all, err := e.Repo.ListBoardTasks(ctx, repo.BoardTaskFilters{})
		if err != nil {
			return nil, handleError(err)
		}
		view := input.View
		if view == "" {
			view = engine.ViewActive
		}
		visible := engine.VisibleBoardTasks(all, s, view)
		return &struct {
			Body boardTaskList `json:"body"`
		}{Body: boardTaskList{Items: orEmpty(visible)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "resolve-board-task",
		Method:      http.MethodPost,
		Path:        "/board-tasks/{task_id}/resolve",
		Summary:     "Mark a board task done or refused",
		Errors:      []int{http.StatusBadRequest, http.StatusConflict, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TaskID string                  `path:"task_id"`
		Body   ResolveBoardTaskRequest `json:"body"`
	}) (*struct {
		Body domain.BoardTask `json:"body"`
	}, error) {
		s, authErr := viewerFromContext(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		b, err := e.ResolveBoardTask(ctx, input.TaskID, input.Body.Status,
			input.Body.Comment, input.Body.AttachmentURL, input.Body.RefusalReason, s)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.BoardTask `json:"body"`
		}{Body: b}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reopen-board-task",
		Method:      http.MethodPost,
		Path:        "/board-tasks/{task_id}/reopen",
		Summary:     "Return a resolved board task to pending",
		Errors:      []int{http.StatusConflict, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TaskID string `path:"task_id"`
	}) (*struct {
		Body domain.BoardTask `json:"body"`
	}, error) {
		s, authErr := viewerFromContext(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		b, err := e.ReopenBoardTask(ctx, input.TaskID, s)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.BoardTask `json:"body"`
		}{Body: b}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "archive-board-task",
		Method:      http.MethodPost,
		Path:        "/board-tasks/{task_id}/archive",
		Summary:     "Archive a board task for the caller's role",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TaskID string `path:"task_id"`
	}) (*struct {
		Body domain.BoardTask `json:"body"`
	}, error) {
		s, authErr := viewerFromContext(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		b, err := e.SetBoardTaskArchived(ctx, input.TaskID, s, true)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.BoardTask `json:"body"`
		}{Body: b}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "restore-board-task",
		Method:      http.MethodPost,
		Path:        "/board-tasks/{task_id}/restore",
		Summary:     "Restore an archived board task for the caller's role",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TaskID string `path:"task_id"`
	}) (*struct {
		Body domain.BoardTask `json:"body"`
	}, error) {
		s, authErr := viewerFromContext(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		b, err := e.SetBoardTaskArchived(ctx, input.TaskID, s, false)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.BoardTask `json:"body"`
		}{Body: b}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-board-task",
		Method:      http.MethodDelete,
		Path:        "/board-tasks/{task_id}",
		Summary:     "Delete board task",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TaskID string `path:"task_id"`
	}) (*struct{}, error) {
		s, authErr := requireAdmin(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteBoardTask(ctx, input.TaskID, s.Email); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerPersonalTasks(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-personal-task",
		Method:        http.MethodPost,
		Path:          "/personal-tasks",
		Summary:       "Create personal task",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CreatePersonalTaskRequest `json:"body"`
	}) (*struct {
		Body domain.PersonalTask `json:"body"`
	}, error) {
		s, authErr := viewerFromContext(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		t, err := e.CreatePersonalTask(ctx, engine.PersonalTaskCreateOptions{
			OwnerEmail: s.Email,
			Text:       input.Body.Text,
			Context:    input.Body.Context,
			Recurrence: input.Body.Recurrence,
			DueDate:    input.Body.DueDate,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.PersonalTask `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-personal-tasks",
		Method:      http.MethodGet,
		Path:        "/personal-tasks",
		Summary:     "List the caller's personal tasks",
	}, func(ctx context.Context, input *struct {
		Context string `query:"context"`
		Pending bool   `query:"pending"`
	}) (*struct {
		Body personalTaskList `json:"body"`
	}, error) {
		s, authErr := viewerFromContext(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		items, err := e.Repo.ListPersonalTasks(ctx, repo.PersonalTaskFilters{
			OwnerEmail: s.Email,
			Context:    input.Context,
			Pending:    input.Pending,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body personalTaskList `json:"body"`
		}{Body: personalTaskList{Items: orEmpty(items)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-personal-task",
		Method:      http.MethodPatch,
		Path:        "/personal-tasks/{task_id}",
		Summary:     "Update personal task",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TaskID string                    `path:"task_id"`
		Body   UpdatePersonalTaskRequest `json:"body"`
	}) (*struct {
		Body domain.PersonalTask `json:"body"`
	}, error) {
		s, authErr := viewerFromContext(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		existing, err := e.Repo.GetPersonalTask(ctx, input.TaskID)
		if err != nil {
			return nil, handleError(err)
		}
		if existing.OwnerEmail != s.Email && !s.Admin {
			return nil, huma.NewError(http.StatusForbidden, "personal tasks are private to their owner")
		}
		u := repo.PersonalTaskUpdate{
			Text:       input.Body.Text,
			Context:    input.Body.Context,
			Recurrence: input.Body.Recurrence,
		}
		if input.Body.DueDate != nil {
			if *input.Body.DueDate == "" {
				u.ClearDueDate = true
			} else {
				u.DueDate = input.Body.DueDate
			}
		}
		if err := e.Repo.UpdatePersonalTaskFields(ctx, input.TaskID, u); err != nil {
			return nil, handleError(err)
		}
		t, err := e.Repo.GetPersonalTask(ctx, input.TaskID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.PersonalTask `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "toggle-personal-task",
		Method:      http.MethodPost,
		Path:        "/personal-tasks/{task_id}/toggle",
		Summary:     "Toggle done, spawning the next occurrence when recurring",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TaskID string `path:"task_id"`
	}) (*struct {
		Body togglePersonalTaskResponse `json:"body"`
	}, error) {
		s, authErr := viewerFromContext(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		existing, err := e.Repo.GetPersonalTask(ctx, input.TaskID)
		if err != nil {
			return nil, handleError(err)
		}
		if existing.OwnerEmail != s.Email && !s.Admin {
			return nil, huma.NewError(http.StatusForbidden, "personal tasks are private to their owner")
		}
		t, spawned, err := e.TogglePersonalTask(ctx, input.TaskID, s.Email)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body togglePersonalTaskResponse `json:"body"`
		}{Body: togglePersonalTaskResponse{Task: t, Spawned: spawned}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-personal-task",
		Method:      http.MethodDelete,
		Path:        "/personal-tasks/{task_id}",
		Summary:     "Delete personal task",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TaskID string `path:"task_id"`
	}) (*struct{}, error) {
		s, authErr := viewerFromContext(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		existing, err := e.Repo.GetPersonalTask(ctx, input.TaskID)
		if err != nil {
			return nil, handleError(err)
		}
		if existing.OwnerEmail != s.Email && !s.Admin {
			return nil, huma.NewError(http.StatusForbidden, "personal tasks are private to their owner")
		}
		if err := e.DeletePersonalTask(ctx, input.TaskID, s.Email); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerMeetings(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-meeting",
		Method:        http.MethodPost,
		Path:          "/meetings",
		Summary:       "Schedule a meeting",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CreateMeetingRequest `json:"body"`
	}) (*struct {
		Body domain.Meeting `json:"body"`
	}, error) {
		s, authErr := viewerFromContext(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		m, err := e.CreateMeeting(ctx, input.Body.Context, input.Body.Date, s.Email)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Meeting `json:"body"`
		}{Body: m}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-meetings",
		Method:      http.MethodGet,
		Path:        "/meetings",
		Summary:     "List meetings",
	}, func(ctx context.Context, input *struct {
		Status string `query:"status" enum:"scheduled,completed"`
	}) (*struct {
		Body meetingList `json:"body"`
	}, error) {
		if _, authErr := viewerFromContext(ctx, e); authErr != nil {
			return nil, authErr
		}
		items, err := e.Repo.ListMeetings(ctx, input.Status)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body meetingList `json:"body"`
		}{Body: meetingList{Items: orEmpty(items)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-meeting",
		Method:      http.MethodGet,
		Path:        "/meetings/{meeting_id}",
		Summary:     "Get meeting with agenda and decisions",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		MeetingID string `path:"meeting_id"`
	}) (*struct {
		Body domain.Meeting `json:"body"`
	}, error) {
		if _, authErr := viewerFromContext(ctx, e); authErr != nil {
			return nil, authErr
		}
		m, err := e.Repo.GetMeeting(ctx, input.MeetingID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Meeting `json:"body"`
		}{Body: m}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-meeting-item",
		Method:        http.MethodPost,
		Path:          "/meetings/{meeting_id}/items",
		Summary:       "Append an agenda item",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		MeetingID string                `path:"meeting_id"`
		Body      AddMeetingItemRequest `json:"body"`
	}) (*struct {
		Body domain.MeetingItem `json:"body"`
	}, error) {
		s, authErr := viewerFromContext(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		it, err := e.AddMeetingItem(ctx, input.MeetingID, input.Body.List, input.Body.Text, s.Email)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.MeetingItem `json:"body"`
		}{Body: it}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-meeting-item",
		Method:      http.MethodPatch,
		Path:        "/meetings/{meeting_id}/items/{item_id}",
		Summary:     "Update an agenda item",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		MeetingID string                   `path:"meeting_id"`
		ItemID    string                   `path:"item_id"`
		Body      UpdateMeetingItemRequest `json:"body"`
	}) (*struct{}, error) {
		if _, authErr := viewerFromContext(ctx, e); authErr != nil {
			return nil, authErr
		}
		if err := e.Repo.UpdateMeetingItem(ctx, input.ItemID, input.Body.Text, input.Body.Done); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-meeting-item",
		Method:      http.MethodDelete,
		Path:        "/meetings/{meeting_id}/items/{item_id}",
		Summary:     "Delete an agenda item",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		MeetingID string `path:"meeting_id"`
		ItemID    string `path:"item_id"`
	}) (*struct{}, error) {
		if _, authErr := viewerFromContext(ctx, e); authErr != nil {
			return nil, authErr
		}
		if err := e.Repo.DeleteMeetingItem(ctx, input.ItemID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reorder-meeting-items",
		Method:      http.MethodPost,
		Path:        "/meetings/{meeting_id}/items/reorder",
		Summary:     "Move one agenda item before another",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		MeetingID string              `path:"meeting_id"`
		Body      ReorderItemsRequest `json:"body"`
	}) (*struct {
		Body meetingItemList `json:"body"`
	}, error) {
		s, authErr := viewerFromContext(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		items, err := e.ReorderItems(ctx, input.MeetingID, input.Body.List, input.Body.FromID, input.Body.ToID, s.Email)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body meetingItemList `json:"body"`
		}{Body: meetingItemList{Items: orEmpty(items)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-meeting-decision",
		Method:        http.MethodPost,
		Path:          "/meetings/{meeting_id}/decisions",
		Summary:       "Record a decision",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		MeetingID string                    `path:"meeting_id"`
		Body      AddMeetingDecisionRequest `json:"body"`
	}) (*struct {
		Body domain.MeetingDecision `json:"body"`
	}, error) {
		s, authErr := viewerFromContext(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		d, err := e.AddMeetingDecision(ctx, input.MeetingID, input.Body.Text, input.Body.ResponsibleProviderID, s.Email)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.MeetingDecision `json:"body"`
		}{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-meeting-decision",
		Method:      http.MethodPatch,
		Path:        "/meetings/{meeting_id}/decisions/{decision_id}",
		Summary:     "Update a decision",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		MeetingID  string                       `path:"meeting_id"`
		DecisionID string                       `path:"decision_id"`
		Body       UpdateMeetingDecisionRequest `json:"body"`
	}) (*struct{}, error) {
		if _, authErr := viewerFromContext(ctx, e); authErr != nil {
			return nil, authErr
		}
		var responsible *string
		clearResponsible := false
		if input.Body.ResponsibleProviderID != nil {
			if *input.Body.ResponsibleProviderID == "" {
				clearResponsible = true
			} else {
				responsible = input.Body.ResponsibleProviderID
			}
		}
		err := e.Repo.UpdateMeetingDecision(ctx, input.DecisionID, input.Body.Text, responsible, clearResponsible, input.Body.Done)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "finalize-meeting",
		Method:      http.MethodPost,
		Path:        "/meetings/{meeting_id}/finalize",
		Summary:     "Complete the meeting and convert decisions into board tasks",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		MeetingID string `path:"meeting_id"`
	}) (*struct {
		Body finalizeMeetingResponse `json:"body"`
	}, error) {
		s, authErr := viewerFromContext(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		m, created, err := e.FinalizeMeeting(ctx, input.MeetingID, s.Email)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body finalizeMeetingResponse `json:"body"`
		}{Body: finalizeMeetingResponse{Meeting: m, CreatedTaskCount: created}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-meeting",
		Method:      http.MethodDelete,
		Path:        "/meetings/{meeting_id}",
		Summary:     "Delete meeting",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		MeetingID string `path:"meeting_id"`
	}) (*struct{}, error) {
		s, authErr := viewerFromContext(ctx, e)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteMeeting(ctx, input.MeetingID, s.Email); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}
