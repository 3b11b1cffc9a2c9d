package domain

// Provider kinds.
const (
	ProviderInternalSquad   = "internal_squad"
	ProviderExternalPartner = "external_partner"
)

// Project statuses.
const (
	ProjectOnTrack   = "ON_TRACK"
	ProjectDelayed   = "DELAYED"
	ProjectCompleted = "COMPLETED"
	ProjectArchived  = "ARCHIVED"
)

// Task statuses.
const (
	TaskPending    = "pending"
	TaskInProgress = "in_progress"
	TaskDone       = "done"
)

// BoardTask statuses.
const (
	BoardPending = "pending"
	BoardDone    = "done"
	BoardRefused = "refused"
)

// Personal task recurrence rules.
const (
	RecurrenceNone    = "none"
	RecurrenceDaily   = "daily"
	RecurrenceWeekly  = "weekly"
	RecurrenceMonthly = "monthly"
)

// Meeting statuses.
const (
	MeetingScheduled = "scheduled"
	MeetingCompleted = "completed"
)

// Thesis statuses.
const (
	ThesisDraft    = "DRAFT"
	ThesisApproved = "APPROVED"
	ThesisRejected = "REJECTED"
)

// Regulatory document stored statuses and derived staleness classes.
const (
	DocValid   = "VALID"
	DocMissing = "MISSING"

	DocExpired      = "EXPIRED"
	DocExpiringSoon = "EXPIRING_SOON"
	DocCurrent      = "CURRENT"
)

type Company struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Sector    string `json:"sector,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

// Provider is an internal squad or external partner that can be assigned
// work. CapacitySlots is meaningful only for internal squads.
type Provider struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Kind          string `json:"kind" enum:"internal_squad,external_partner"`
	CapacitySlots int    `json:"capacity_slots,omitempty"`
	CreatedAt     string `json:"created_at" format:"date-time"`
}

// Project is a macro initiative (ParentProjectID nil) or one of its phases
// (ParentProjectID set). A non-nil ProviderID occupies one slot of that
// provider until the project completes.
type Project struct {
	ID              string  `json:"id"`
	CompanyID       string  `json:"company_id"`
	Name            string  `json:"name"`
	ParentProjectID *string `json:"parent_project_id,omitempty"`
	ProviderID      *string `json:"provider_id,omitempty"`
	Status          string  `json:"status" enum:"ON_TRACK,DELAYED,COMPLETED,ARCHIVED"`
	Investment      float64 `json:"investment,omitempty"`
	MonthlyCost     float64 `json:"monthly_cost,omitempty"`
	ExternalDocID   *string `json:"external_doc_id,omitempty"`
	Timeline        string  `json:"timeline,omitempty"`
	CreatedAt       string  `json:"created_at" format:"date-time"`
	UpdatedAt       string  `json:"updated_at" format:"date-time"`
}

// Task is the ephemeral operational unit. A non-nil ProjectID links it to a
// project for completion rollup; a due date makes it count against provider
// capacity.
type Task struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	ProviderID *string `json:"provider_id,omitempty"`
	ProjectID  *string `json:"project_id,omitempty"`
	Status     string  `json:"status" enum:"pending,in_progress,done"`
	DueDate    *string `json:"due_date,omitempty" format:"date"`
	CreatedAt  string  `json:"created_at" format:"date-time"`
	UpdatedAt  string  `json:"updated_at" format:"date-time"`
}

// BoardTask is a delegation unit between a requestor and a responsible
// provider. The two archive flags are independent so each stakeholder can
// archive their side of a resolved task without hiding it from the other.
type BoardTask struct {
	ID                  string  `json:"id"`
	Title               string  `json:"title"`
	ProviderID          string  `json:"provider_id"`
	RequestorEmail      string  `json:"requestor_email"`
	RequestorName       string  `json:"requestor_name,omitempty"`
	Status              string  `json:"status" enum:"pending,done,refused"`
	ArchivedByProvider  bool    `json:"archived_by_provider"`
	ArchivedByRequestor bool    `json:"archived_by_requestor"`
	ResponseComment     *string `json:"response_comment,omitempty"`
	AttachmentURL       *string `json:"attachment_url,omitempty"`
	RefusalReason       *string `json:"refusal_reason,omitempty"`
	CreatedAt           string  `json:"created_at" format:"date-time"`
	UpdatedAt           string  `json:"updated_at" format:"date-time"`
}

type PersonalTask struct {
	ID         string  `json:"id"`
	OwnerEmail string  `json:"owner_email"`
	Text       string  `json:"text"`
	Context    string  `json:"context,omitempty"`
	Recurrence string  `json:"recurrence" enum:"none,daily,weekly,monthly"`
	Done       bool    `json:"done"`
	DoneAt     *string `json:"done_at,omitempty" format:"date-time"`
	DueDate    *string `json:"due_date,omitempty" format:"date"`
	CreatedAt  string  `json:"created_at" format:"date-time"`
}

// MeetingItem is one entry of a meeting's ordered lists. List selects which
// of the three lists the item belongs to.
type MeetingItem struct {
	ID        string `json:"id"`
	MeetingID string `json:"meeting_id"`
	List      string `json:"list" enum:"provider_agenda,requestor_agenda,general"`
	Position  int    `json:"position"`
	Text      string `json:"text"`
	Done      bool   `json:"done"`
}

// MeetingDecision is a decision record that finalize may convert into a
// BoardTask. Processed guards against duplicate conversion.
type MeetingDecision struct {
	ID                    string  `json:"id"`
	MeetingID             string  `json:"meeting_id"`
	Position              int     `json:"position"`
	Text                  string  `json:"text"`
	ResponsibleProviderID *string `json:"responsible_provider_id,omitempty"`
	Done                  bool    `json:"done"`
	Processed             bool    `json:"processed"`
}

type Meeting struct {
	ID        string            `json:"id"`
	Context   string            `json:"context,omitempty"`
	Date      string            `json:"date" format:"date"`
	Status    string            `json:"status" enum:"scheduled,completed"`
	Items     []MeetingItem     `json:"items,omitempty"`
	Decisions []MeetingDecision `json:"decisions,omitempty"`
	CreatedAt string            `json:"created_at" format:"date-time"`
}

// Thesis is an R&D pipeline entry. Scalar scores of 0 mean "not yet
// assessed". Approval spawns exactly one ON_TRACK project.
type Thesis struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	CompanyID      string  `json:"company_id,omitempty"`
	RiskScore      float64 `json:"risk_score,omitempty"`
	MonthlyRevenue float64 `json:"monthly_revenue,omitempty"`
	Status         string  `json:"status" enum:"DRAFT,APPROVED,REJECTED"`
	ProjectID      *string `json:"project_id,omitempty"`
	CreatedAt      string  `json:"created_at" format:"date-time"`
}

type RegulatoryDoc struct {
	ID         string  `json:"id"`
	CompanyID  string  `json:"company_id"`
	Category   string  `json:"category"`
	Status     string  `json:"status" enum:"VALID,MISSING"`
	Staleness  string  `json:"staleness,omitempty" enum:"EXPIRED,EXPIRING_SOON,CURRENT"`
	Expiration *string `json:"expiration,omitempty" format:"date"`
	FileURL    *string `json:"file_url,omitempty"`
	CreatedAt  string  `json:"created_at" format:"date-time"`
}

// Profile links an authenticated email to a display name, an admin flag and,
// for squad members, the provider they answer for.
type Profile struct {
	Email      string  `json:"email"`
	Name       string  `json:"name,omitempty"`
	Admin      bool    `json:"admin"`
	ProviderID *string `json:"provider_id,omitempty"`
	CreatedAt  string  `json:"created_at" format:"date-time"`
}

type AuditEntry struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorEmail string `json:"actor_email"`
	Payload    string `json:"payload_json"`
}

type APIKey struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}
