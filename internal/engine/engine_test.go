package engine_test

import (
	"context"
	"testing"
	"time"

	"holdingboard/internal/config"
	"holdingboard/internal/db"
	"holdingboard/internal/domain"
	"holdingboard/internal/engine"
	"holdingboard/internal/engine/session"
	"holdingboard/internal/migrate"
	"holdingboard/internal/repo"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Default("group-1")
	eng := engine.New(conn, cfg)
	eng.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	return testEnv{Engine: eng, Ctx: context.Background()}
}

func (env testEnv) seedCompany(t *testing.T, name string) domain.Company {
	t.Helper()
	c, err := env.Engine.CreateCompany(env.Ctx, name, "tech", "tester@example.com")
	if err != nil {
		t.Fatalf("seed company: %v", err)
	}
	return c
}

func (env testEnv) seedProvider(t *testing.T, name, kind string, slots int) domain.Provider {
	t.Helper()
	p, err := env.Engine.CreateProvider(env.Ctx, name, kind, slots, "tester@example.com")
	if err != nil {
		t.Fatalf("seed provider: %v", err)
	}
	return p
}

func (env testEnv) auditCount(t *testing.T, entryType string) int {
	t.Helper()
	var n int
	err := env.Engine.DB.QueryRow(`SELECT COUNT(*) FROM audit_logs WHERE type=?`, entryType).Scan(&n)
	if err != nil {
		t.Fatalf("count audit entries: %v", err)
	}
	return n
}

func TestCompleteTaskRollsUpProject(t *testing.T) {
	env := newTestEnv(t)
	company := env.seedCompany(t, "Acme Robotics")
	squad := env.seedProvider(t, "Core Squad", domain.ProviderInternalSquad, 3)

	project, err := env.Engine.CreateProject(env.Ctx, engine.ProjectCreateOptions{
		CompanyID:  company.ID,
		Name:       "Warehouse automation",
		ProviderID: squad.ID,
		ActorEmail: "tester@example.com",
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	phase, err := env.Engine.CreateProject(env.Ctx, engine.ProjectCreateOptions{
		CompanyID:  company.ID,
		Name:       "Phase 1",
		ParentID:   project.ID,
		ActorEmail: "tester@example.com",
	})
	if err != nil {
		t.Fatalf("create phase: %v", err)
	}
	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		Title:      "Ship pilot",
		ProviderID: squad.ID,
		ProjectID:  project.ID,
		ActorEmail: "tester@example.com",
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	done, err := env.Engine.CompleteTask(env.Ctx, task.ID, "tester@example.com")
	if err != nil {
		t.Fatalf("complete task: %v", err)
	}
	if done.Status != domain.TaskDone {
		t.Fatalf("task status = %q, want done", done.Status)
	}
	refreshed, err := env.Engine.Repo.GetProject(env.Ctx, project.ID)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if refreshed.Status != domain.ProjectCompleted {
		t.Fatalf("project status = %q, want COMPLETED", refreshed.Status)
	}
	if refreshed.ProviderID != nil {
		t.Fatalf("provider slot not released: %v", *refreshed.ProviderID)
	}
	// phases are not auto-completed by the rollup
	freshPhase, err := env.Engine.Repo.GetProject(env.Ctx, phase.ID)
	if err != nil {
		t.Fatal(err)
	}
	if freshPhase.Status != domain.ProjectOnTrack {
		t.Fatalf("phase status = %q, want ON_TRACK", freshPhase.Status)
	}
	if got := env.auditCount(t, "task.completed"); got != 1 {
		t.Fatalf("task.completed audit entries = %d, want 1", got)
	}
}

func TestCompleteTaskWithoutProjectTouchesNoProject(t *testing.T) {
	env := newTestEnv(t)
	company := env.seedCompany(t, "Acme Robotics")
	project, err := env.Engine.CreateProject(env.Ctx, engine.ProjectCreateOptions{
		CompanyID:  company.ID,
		Name:       "Untouched",
		ActorEmail: "tester@example.com",
	})
	if err != nil {
		t.Fatal(err)
	}
	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		Title:      "Standalone chore",
		ActorEmail: "tester@example.com",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.CompleteTask(env.Ctx, task.ID, "tester@example.com"); err != nil {
		t.Fatalf("complete task: %v", err)
	}
	refreshed, err := env.Engine.Repo.GetProject(env.Ctx, project.ID)
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.Status != domain.ProjectOnTrack {
		t.Fatalf("unrelated project status changed to %q", refreshed.Status)
	}
}

func TestPhaseCannotNest(t *testing.T) {
	env := newTestEnv(t)
	company := env.seedCompany(t, "Acme Robotics")
	root, err := env.Engine.CreateProject(env.Ctx, engine.ProjectCreateOptions{
		CompanyID: company.ID, Name: "Root", ActorEmail: "tester@example.com",
	})
	if err != nil {
		t.Fatal(err)
	}
	phase, err := env.Engine.CreateProject(env.Ctx, engine.ProjectCreateOptions{
		CompanyID: company.ID, Name: "Phase 1", ParentID: root.ID, ActorEmail: "tester@example.com",
	})
	if err != nil {
		t.Fatalf("create phase: %v", err)
	}
	_, err = env.Engine.CreateProject(env.Ctx, engine.ProjectCreateOptions{
		CompanyID: company.ID, Name: "Phase 1.1", ParentID: phase.ID, ActorEmail: "tester@example.com",
	})
	if err == nil {
		t.Fatalf("expected nesting error")
	}
}

func TestBoardTaskResolveAndReopen(t *testing.T) {
	env := newTestEnv(t)
	squad := env.seedProvider(t, "Core Squad", domain.ProviderInternalSquad, 3)
	b, err := env.Engine.CreateBoardTask(env.Ctx, engine.BoardTaskCreateOptions{
		Title:          "Provide Q1 numbers",
		ProviderID:     squad.ID,
		RequestorEmail: "ceo@example.com",
		RequestorName:  "The CEO",
	})
	if err != nil {
		t.Fatalf("create board task: %v", err)
	}
	if b.Status != domain.BoardPending {
		t.Fatalf("new board task status = %q", b.Status)
	}

	squadLead := session.Session{Email: "squad@example.com", ProviderID: &squad.ID}

	// a viewer with no role on the task cannot answer it
	stranger := session.Session{Email: "stranger@example.com"}
	if _, err := env.Engine.ResolveBoardTask(env.Ctx, b.ID, domain.BoardRefused, "", "", "not mine", stranger); err == nil {
		t.Fatalf("expected role error for stranger resolve")
	}
	// the requestor asks, the provider answers
	if _, err := env.Engine.ResolveBoardTask(env.Ctx, b.ID, domain.BoardDone, "", "", "", session.Session{Email: "ceo@example.com"}); err == nil {
		t.Fatalf("expected role error for requestor resolve")
	}

	resolved, err := env.Engine.ResolveBoardTask(env.Ctx, b.ID, domain.BoardDone, "attached", "https://files/x.pdf", "", squadLead)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Status != domain.BoardDone {
		t.Fatalf("status = %q, want done", resolved.Status)
	}
	if resolved.ResponseComment == nil || *resolved.ResponseComment != "attached" {
		t.Fatalf("response comment not stored: %+v", resolved.ResponseComment)
	}
	if resolved.AttachmentURL == nil || *resolved.AttachmentURL != "https://files/x.pdf" {
		t.Fatalf("attachment not stored")
	}

	// resolving a non-pending task errors
	if _, err := env.Engine.ResolveBoardTask(env.Ctx, b.ID, domain.BoardRefused, "", "", "no", squadLead); err == nil {
		t.Fatalf("expected already-resolved error")
	}

	// archive one side so reopen has flags to clear
	requestor := session.Session{Email: "ceo@example.com"}
	if _, err := env.Engine.SetBoardTaskArchived(env.Ctx, b.ID, requestor, true); err != nil {
		t.Fatalf("archive: %v", err)
	}

	// reopening is open to either party, not to outsiders
	if _, err := env.Engine.ReopenBoardTask(env.Ctx, b.ID, stranger); err == nil {
		t.Fatalf("expected role error for stranger reopen")
	}

	reopened, err := env.Engine.ReopenBoardTask(env.Ctx, b.ID, requestor)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Status != domain.BoardPending {
		t.Fatalf("reopened status = %q", reopened.Status)
	}
	if reopened.ResponseComment != nil || reopened.AttachmentURL != nil {
		t.Fatalf("reopen did not clear response payload")
	}
	if reopened.ArchivedByProvider || reopened.ArchivedByRequestor {
		t.Fatalf("reopen did not clear archive flags")
	}
}

func TestBoardTaskArchivePerRole(t *testing.T) {
	env := newTestEnv(t)
	squad := env.seedProvider(t, "Core Squad", domain.ProviderInternalSquad, 3)
	b, err := env.Engine.CreateBoardTask(env.Ctx, engine.BoardTaskCreateOptions{
		Title:          "Provide Q1 numbers",
		ProviderID:     squad.ID,
		RequestorEmail: "ceo@example.com",
	})
	if err != nil {
		t.Fatal(err)
	}

	providerViewer := session.Session{Email: "lead@example.com", ProviderID: &squad.ID}
	got, err := env.Engine.SetBoardTaskArchived(env.Ctx, b.ID, providerViewer, true)
	if err != nil {
		t.Fatalf("provider archive: %v", err)
	}
	if !got.ArchivedByProvider || got.ArchivedByRequestor {
		t.Fatalf("provider archive flipped wrong flag: %+v", got)
	}

	requestor := session.Session{Email: "ceo@example.com"}
	got, err = env.Engine.SetBoardTaskArchived(env.Ctx, b.ID, requestor, true)
	if err != nil {
		t.Fatalf("requestor archive: %v", err)
	}
	if !got.ArchivedByRequestor {
		t.Fatalf("requestor flag not set")
	}

	// restore only the requestor side
	got, err = env.Engine.SetBoardTaskArchived(env.Ctx, b.ID, requestor, false)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got.ArchivedByRequestor || !got.ArchivedByProvider {
		t.Fatalf("restore touched the provider flag: %+v", got)
	}

	stranger := session.Session{Email: "stranger@example.com"}
	if _, err := env.Engine.SetBoardTaskArchived(env.Ctx, b.ID, stranger, true); err == nil {
		t.Fatalf("expected role error for stranger")
	}
}

func TestVisibleBoardTasksPartition(t *testing.T) {
	provID := "prov-1"
	tasks := []domain.BoardTask{
		{ID: "t1", ProviderID: provID, RequestorEmail: "ceo@example.com"},
		{ID: "t2", ProviderID: provID, RequestorEmail: "ceo@example.com", ArchivedByProvider: true},
		{ID: "t3", ProviderID: "prov-2", RequestorEmail: "ceo@example.com", ArchivedByRequestor: true},
		{ID: "t4", ProviderID: "prov-2", RequestorEmail: "other@example.com"},
	}

	provider := session.Session{Email: "lead@example.com", ProviderID: &provID}
	active := engine.VisibleBoardTasks(tasks, provider, engine.ViewActive)
	if len(active) != 1 || active[0].ID != "t1" {
		t.Fatalf("provider active = %+v", active)
	}
	archived := engine.VisibleBoardTasks(tasks, provider, engine.ViewArchived)
	if len(archived) != 1 || archived[0].ID != "t2" {
		t.Fatalf("provider archived = %+v", archived)
	}

	requestor := session.Session{Email: "ceo@example.com"}
	active = engine.VisibleBoardTasks(tasks, requestor, engine.ViewActive)
	if len(active) != 2 {
		t.Fatalf("requestor active = %+v", active)
	}
	// t2 is archived by the provider only, so the requestor still sees it active
	for _, b := range active {
		if b.ID == "t3" {
			t.Fatalf("archived task leaked into requestor active list")
		}
	}

	admin := session.Session{Email: "admin@example.com", Admin: true}
	all := engine.VisibleBoardTasks(tasks, admin, engine.ViewActive)
	if len(all) != 2 {
		t.Fatalf("admin active = %d tasks, want 2", len(all))
	}

	nobody := session.Session{Email: "stranger@example.com"}
	if got := engine.VisibleBoardTasks(tasks, nobody, engine.ViewActive); len(got) != 0 {
		t.Fatalf("stranger sees %d tasks", len(got))
	}
}

func TestFinalizeMeetingConvertsDecisions(t *testing.T) {
	env := newTestEnv(t)
	squad := env.seedProvider(t, "Core Squad", domain.ProviderInternalSquad, 3)
	m, err := env.Engine.CreateMeeting(env.Ctx, "Monthly board", "2024-02-01", "ceo@example.com")
	if err != nil {
		t.Fatalf("create meeting: %v", err)
	}
	if _, err := env.Engine.AddMeetingDecision(env.Ctx, m.ID, "Hire two engineers", squad.ID, "ceo@example.com"); err != nil {
		t.Fatal(err)
	}
	// no responsible provider, stays unprocessed
	if _, err := env.Engine.AddMeetingDecision(env.Ctx, m.ID, "Think about pricing", "", "ceo@example.com"); err != nil {
		t.Fatal(err)
	}

	finalized, created, err := env.Engine.FinalizeMeeting(env.Ctx, m.ID, "ceo@example.com")
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if finalized.Status != domain.MeetingCompleted {
		t.Fatalf("meeting status = %q", finalized.Status)
	}
	if created != 1 {
		t.Fatalf("created = %d, want 1", created)
	}
	spawned, err := env.Engine.Repo.ListBoardTasks(env.Ctx, repo.BoardTaskFilters{})
	if err != nil {
		t.Fatal(err)
	}
	if len(spawned) != 1 {
		t.Fatalf("board tasks = %d, want 1", len(spawned))
	}
	if spawned[0].Title != "Hire two engineers" || spawned[0].ProviderID != squad.ID || spawned[0].Status != domain.BoardPending {
		t.Fatalf("spawned board task = %+v", spawned[0])
	}
	decisions, err := env.Engine.Repo.ListMeetingDecisions(env.Ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range decisions {
		if d.ResponsibleProviderID != nil && !d.Processed {
			t.Fatalf("delegated decision left unprocessed: %+v", d)
		}
		if d.ResponsibleProviderID == nil && d.Processed {
			t.Fatalf("undelegated decision marked processed: %+v", d)
		}
	}

	// second finalize is a no-op for already processed decisions
	_, created, err = env.Engine.FinalizeMeeting(env.Ctx, m.ID, "ceo@example.com")
	if err != nil {
		t.Fatalf("second finalize: %v", err)
	}
	if created != 0 {
		t.Fatalf("second finalize created %d tasks", created)
	}
}

func TestReorderMeetingItems(t *testing.T) {
	env := newTestEnv(t)
	m, err := env.Engine.CreateMeeting(env.Ctx, "Monthly board", "2024-02-01", "ceo@example.com")
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, text := range []string{"alpha", "beta", "gamma"} {
		it, err := env.Engine.AddMeetingItem(env.Ctx, m.ID, "general", text, "ceo@example.com")
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, it.ID)
	}
	moved, err := env.Engine.ReorderItems(env.Ctx, m.ID, "general", ids[2], ids[0], "ceo@example.com")
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if moved[0].Text != "gamma" || moved[1].Text != "alpha" || moved[2].Text != "beta" {
		t.Fatalf("order after move = %q %q %q", moved[0].Text, moved[1].Text, moved[2].Text)
	}
	for i, it := range moved {
		if it.Position != i {
			t.Fatalf("position %d = %d", i, it.Position)
		}
	}
	// the new order survives a reload
	fresh, err := env.Engine.Repo.ListMeetingItems(env.Ctx, m.ID, "general")
	if err != nil {
		t.Fatal(err)
	}
	if fresh[0].Text != "gamma" {
		t.Fatalf("persisted order starts with %q", fresh[0].Text)
	}
}

func TestTogglePersonalTaskSpawnsRecurrence(t *testing.T) {
	env := newTestEnv(t)
	task, err := env.Engine.CreatePersonalTask(env.Ctx, engine.PersonalTaskCreateOptions{
		OwnerEmail: "me@example.com",
		Text:       "Weekly review",
		Context:    "work",
		Recurrence: domain.RecurrenceWeekly,
		DueDate:    "2024-01-10",
	})
	if err != nil {
		t.Fatalf("create personal task: %v", err)
	}
	toggled, spawned, err := env.Engine.TogglePersonalTask(env.Ctx, task.ID, "me@example.com")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !toggled.Done || toggled.DoneAt == nil {
		t.Fatalf("toggle did not complete the task: %+v", toggled)
	}
	if spawned == nil {
		t.Fatalf("no successor spawned")
	}
	if spawned.DueDate == nil || *spawned.DueDate != "2024-01-17" {
		t.Fatalf("successor due date = %v, want 2024-01-17", spawned.DueDate)
	}
	if spawned.Done {
		t.Fatalf("successor already done")
	}
	if spawned.Recurrence != domain.RecurrenceWeekly || spawned.Context != "work" {
		t.Fatalf("successor lost recurrence/context: %+v", spawned)
	}

	// un-toggling never retracts the spawned successor
	undone, second, err := env.Engine.TogglePersonalTask(env.Ctx, task.ID, "me@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if undone.Done || second != nil {
		t.Fatalf("un-toggle misbehaved: done=%v spawned=%v", undone.Done, second)
	}
	var total int
	if err := env.Engine.DB.QueryRow(`SELECT COUNT(*) FROM personal_tasks`).Scan(&total); err != nil {
		t.Fatal(err)
	}
	if total != 2 {
		t.Fatalf("personal task rows = %d, want 2", total)
	}
}

func TestTogglePersonalTaskWithoutRecurrence(t *testing.T) {
	env := newTestEnv(t)
	task, err := env.Engine.CreatePersonalTask(env.Ctx, engine.PersonalTaskCreateOptions{
		OwnerEmail: "me@example.com",
		Text:       "One-off errand",
	})
	if err != nil {
		t.Fatal(err)
	}
	_, spawned, err := env.Engine.TogglePersonalTask(env.Ctx, task.ID, "me@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if spawned != nil {
		t.Fatalf("non-recurring task spawned a successor")
	}
}

func TestApproveThesisSpawnsProject(t *testing.T) {
	env := newTestEnv(t)
	company := env.seedCompany(t, "Acme Robotics")
	thesis, err := env.Engine.CreateThesis(env.Ctx, engine.ThesisCreateOptions{
		Title:          "Drone delivery",
		CompanyID:      company.ID,
		RiskScore:      0.4,
		MonthlyRevenue: 2500,
		ActorEmail:     "analyst@example.com",
	})
	if err != nil {
		t.Fatalf("create thesis: %v", err)
	}
	approved, project, err := env.Engine.ApproveThesis(env.Ctx, thesis.ID, "", "admin@example.com")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != domain.ThesisApproved {
		t.Fatalf("thesis status = %q", approved.Status)
	}
	if approved.ProjectID == nil || *approved.ProjectID != project.ID {
		t.Fatalf("thesis not linked to project")
	}
	if project.Status != domain.ProjectOnTrack {
		t.Fatalf("project status = %q", project.Status)
	}
	if project.Investment != 2500*12 {
		t.Fatalf("investment = %v, want annualized revenue", project.Investment)
	}
	if project.CompanyID != company.ID {
		t.Fatalf("project landed in company %q", project.CompanyID)
	}

	if _, _, err := env.Engine.ApproveThesis(env.Ctx, thesis.ID, "", "admin@example.com"); err == nil {
		t.Fatalf("expected already-approved error")
	}
}

func TestRejectThesis(t *testing.T) {
	env := newTestEnv(t)
	thesis, err := env.Engine.CreateThesis(env.Ctx, engine.ThesisCreateOptions{
		Title:      "Vertical farming",
		ActorEmail: "analyst@example.com",
	})
	if err != nil {
		t.Fatal(err)
	}
	rejected, err := env.Engine.RejectThesis(env.Ctx, thesis.ID, "admin@example.com")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != domain.ThesisRejected {
		t.Fatalf("status = %q", rejected.Status)
	}
	var projects int
	if err := env.Engine.DB.QueryRow(`SELECT COUNT(*) FROM projects`).Scan(&projects); err != nil {
		t.Fatal(err)
	}
	if projects != 0 {
		t.Fatalf("rejection spawned %d projects", projects)
	}
}

func TestApproveThesisWithoutCompanyErrors(t *testing.T) {
	env := newTestEnv(t)
	thesis, err := env.Engine.CreateThesis(env.Ctx, engine.ThesisCreateOptions{
		Title:      "Floating idea",
		ActorEmail: "analyst@example.com",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := env.Engine.ApproveThesis(env.Ctx, thesis.ID, "", "admin@example.com"); err == nil {
		t.Fatalf("expected missing-company error")
	}
}

func TestComplianceStatusReportsMissingCategories(t *testing.T) {
	env := newTestEnv(t)
	company := env.seedCompany(t, "Acme Robotics")
	// fixed Now is 2024-01-01; this doc expires inside the 30 day window
	if _, err := env.Engine.CreateRegulatoryDoc(env.Ctx, engine.RegulatoryDocCreateOptions{
		CompanyID:  company.ID,
		Category:   "tax_clearance",
		Status:     domain.DocValid,
		Expiration: "2024-01-20",
		ActorEmail: "admin@example.com",
	}); err != nil {
		t.Fatalf("create doc: %v", err)
	}

	summary, err := env.Engine.ComplianceStatus(env.Ctx, company.ID)
	if err != nil {
		t.Fatalf("compliance status: %v", err)
	}
	byCategory := map[string]engine.ComplianceItem{}
	for _, item := range summary.Items {
		byCategory[item.Category] = item
	}
	tax, ok := byCategory["tax_clearance"]
	if !ok {
		t.Fatalf("tax_clearance missing from summary: %+v", summary.Items)
	}
	if tax.Status != domain.DocValid || tax.Staleness != domain.DocExpiringSoon {
		t.Fatalf("tax_clearance = %+v", tax)
	}
	articles, ok := byCategory["articles_of_incorporation"]
	if !ok || articles.Status != domain.DocMissing {
		t.Fatalf("articles slot = %+v", articles)
	}
	if articles.Staleness != "" {
		t.Fatalf("missing slot carries staleness %q", articles.Staleness)
	}
}
