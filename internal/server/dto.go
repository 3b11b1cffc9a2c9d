package server

import (
	"holdingboard/internal/domain"
	"holdingboard/internal/engine"
)

// Requests.

type CreateCompanyRequest struct {
	Name   string `json:"name" example:"Northwind Logistics"`
	Sector string `json:"sector,omitempty" example:"logistics"`
}

type UpdateCompanyRequest struct {
	Name   *string `json:"name,omitempty"`
	Sector *string `json:"sector,omitempty"`
}

type CreateProviderRequest struct {
	Name          string `json:"name" example:"Platform Squad"`
	Kind          string `json:"kind" enum:"internal_squad,external_partner"`
	CapacitySlots int    `json:"capacity_slots,omitempty" minimum:"0"`
}

type UpdateProviderRequest struct {
	Name          *string `json:"name,omitempty"`
	CapacitySlots *int    `json:"capacity_slots,omitempty" minimum:"0"`
}

type CreateProjectRequest struct {
	CompanyID     string  `json:"company_id"`
	Name          string  `json:"name"`
	ParentID      string  `json:"parent_project_id,omitempty"`
	ProviderID    string  `json:"provider_id,omitempty"`
	Status        string  `json:"status,omitempty" enum:"ON_TRACK,DELAYED,COMPLETED,ARCHIVED"`
	Investment    float64 `json:"investment,omitempty"`
	MonthlyCost   float64 `json:"monthly_cost,omitempty"`
	ExternalDocID string  `json:"external_doc_id,omitempty"`
	Timeline      string  `json:"timeline,omitempty"`
}

type UpdateProjectRequest struct {
	Name          *string  `json:"name,omitempty"`
	Status        *string  `json:"status,omitempty" enum:"ON_TRACK,DELAYED,COMPLETED,ARCHIVED"`
	ProviderID    *string  `json:"provider_id,omitempty"`
	Investment    *float64 `json:"investment,omitempty"`
	MonthlyCost   *float64 `json:"monthly_cost,omitempty"`
	ExternalDocID *string  `json:"external_doc_id,omitempty"`
	Timeline      *string  `json:"timeline,omitempty"`
}

type CreateTaskRequest struct {
	Title      string `json:"title"`
	ProviderID string `json:"provider_id,omitempty"`
	ProjectID  string `json:"project_id,omitempty"`
	DueDate    string `json:"due_date,omitempty" format:"date"`
}

type UpdateTaskRequest struct {
	Title      *string `json:"title,omitempty"`
	Status     *string `json:"status,omitempty" enum:"pending,in_progress,done"`
	ProviderID *string `json:"provider_id,omitempty"`
	DueDate    *string `json:"due_date,omitempty" format:"date"`
}

type CreateBoardTaskRequest struct {
	Title      string `json:"title"`
	ProviderID string `json:"provider_id"`
}

type ResolveBoardTaskRequest struct {
	Status        string `json:"status" enum:"done,refused"`
	Comment       string `json:"comment,omitempty"`
	AttachmentURL string `json:"attachment_url,omitempty"`
	RefusalReason string `json:"refusal_reason,omitempty"`
}

type CreatePersonalTaskRequest struct {
	Text       string `json:"text"`
	Context    string `json:"context,omitempty"`
	Recurrence string `json:"recurrence,omitempty" enum:"none,daily,weekly,monthly"`
	DueDate    string `json:"due_date,omitempty" format:"date"`
}

type UpdatePersonalTaskRequest struct {
	Text       *string `json:"text,omitempty"`
	Context    *string `json:"context,omitempty"`
	Recurrence *string `json:"recurrence,omitempty" enum:"none,daily,weekly,monthly"`
	DueDate    *string `json:"due_date,omitempty" format:"date"`
}

type CreateMeetingRequest struct {
	Context string `json:"context,omitempty"`
	Date    string `json:"date" format:"date"`
}

type AddMeetingItemRequest struct {
	List string `json:"list" enum:"provider_agenda,requestor_agenda,general"`
	Text string `json:"text"`
}

type AddMeetingDecisionRequest struct {
	Text                  string `json:"text"`
	ResponsibleProviderID string `json:"responsible_provider_id,omitempty"`
}

type UpdateMeetingItemRequest struct {
	Text *string `json:"text,omitempty"`
	Done *bool   `json:"done,omitempty"`
}

type UpdateMeetingDecisionRequest struct {
	Text                  *string `json:"text,omitempty"`
	ResponsibleProviderID *string `json:"responsible_provider_id,omitempty"`
	Done                  *bool   `json:"done,omitempty"`
}

type ReorderItemsRequest struct {
	List   string `json:"list" enum:"provider_agenda,requestor_agenda,general"`
	FromID string `json:"from_id"`
	ToID   string `json:"to_id"`
}

type CreateThesisRequest struct {
	Title          string  `json:"title"`
	CompanyID      string  `json:"company_id,omitempty"`
	RiskScore      float64 `json:"risk_score,omitempty"`
	MonthlyRevenue float64 `json:"monthly_revenue,omitempty"`
}

type ApproveThesisRequest struct {
	CompanyID string `json:"company_id,omitempty"`
}

type CreateRegulatoryDocRequest struct {
	CompanyID  string `json:"company_id"`
	Category   string `json:"category"`
	Status     string `json:"status,omitempty" enum:"VALID,MISSING"`
	Expiration string `json:"expiration,omitempty" format:"date"`
	FileURL    string `json:"file_url,omitempty"`
}

type UpdateRegulatoryDocRequest struct {
	Status     *string `json:"status,omitempty" enum:"VALID,MISSING"`
	Expiration *string `json:"expiration,omitempty" format:"date"`
	FileURL    *string `json:"file_url,omitempty"`
}

// Responses reuse the domain models; list endpoints wrap them so the payload
// stays an object.

type companyList struct {
	Items []domain.Company `json:"items"`
}

type providerList struct {
	Items []domain.Provider `json:"items"`
}

type providerLoadList struct {
	Items []engine.ProviderLoad `json:"items"`
}

type projectList struct {
	Items []domain.Project `json:"items"`
}

type projectProgressList struct {
	Items []engine.ProjectProgress `json:"items"`
}

type taskList struct {
	Items []domain.Task `json:"items"`
}

type boardTaskList struct {
	Items []domain.BoardTask `json:"items"`
}

type personalTaskList struct {
	Items []domain.PersonalTask `json:"items"`
}

type meetingItemList struct {
	Items []domain.MeetingItem `json:"items"`
}

type meetingList struct {
	Items []domain.Meeting `json:"items"`
}

type thesisList struct {
	Items []domain.Thesis `json:"items"`
}

type regulatoryDocList struct {
	Items []domain.RegulatoryDoc `json:"items"`
}

type auditList struct {
	Items []domain.AuditEntry `json:"items"`
}

type finalizeMeetingResponse struct {
	Meeting          domain.Meeting `json:"meeting"`
	CreatedTaskCount int            `json:"created_task_count"`
}

type togglePersonalTaskResponse struct {
	Task    domain.PersonalTask  `json:"task"`
	Spawned *domain.PersonalTask `json:"spawned,omitempty"`
}

type approveThesisResponse struct {
	Thesis  domain.Thesis  `json:"thesis"`
	Project domain.Project `json:"project"`
}

type uploadResponse struct {
	URL string `json:"url"`
}

func orEmpty[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
