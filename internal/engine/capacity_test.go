package engine_test

import (
	"testing"
	"time"

	"holdingboard/internal/domain"
	"holdingboard/internal/engine"
)

func strptr(s string) *string { return &s }

func TestComputeProviderLoadInternalSquad(t *testing.T) {
	squad := domain.Provider{ID: "p1", Kind: domain.ProviderInternalSquad, CapacitySlots: 2}
	projects := []domain.Project{
		{ID: "pr1", Name: "Active", ProviderID: strptr("p1"), Status: domain.ProjectOnTrack},
		{ID: "pr2", Name: "Finished", ProviderID: strptr("p1"), Status: domain.ProjectCompleted},
		{ID: "pr3", Name: "Elsewhere", ProviderID: strptr("p2"), Status: domain.ProjectOnTrack},
		{ID: "pr4", Name: "Unassigned", Status: domain.ProjectOnTrack},
	}
	tasks := []domain.Task{
		{ID: "t1", Title: "Scheduled", ProviderID: strptr("p1"), DueDate: strptr("2024-02-01")},
		{ID: "t2", Title: "Backlog", ProviderID: strptr("p1")},
	}
	load := engine.ComputeProviderLoad(squad, projects, tasks)
	if load.Occupied != 2 {
		t.Fatalf("occupied = %d, want 2 (one active project, one scheduled task)", load.Occupied)
	}
	if load.Free != 0 {
		t.Fatalf("free = %d", load.Free)
	}
	if load.Flex || load.Overloaded {
		t.Fatalf("flex=%v overloaded=%v", load.Flex, load.Overloaded)
	}
}

func TestComputeProviderLoadOverload(t *testing.T) {
	squad := domain.Provider{ID: "p1", Kind: domain.ProviderInternalSquad, CapacitySlots: 1}
	projects := []domain.Project{
		{ID: "pr1", ProviderID: strptr("p1"), Status: domain.ProjectOnTrack},
		{ID: "pr2", ProviderID: strptr("p1"), Status: domain.ProjectDelayed},
	}
	load := engine.ComputeProviderLoad(squad, projects, nil)
	if !load.Overloaded {
		t.Fatalf("expected overload at 2 allocations for 1 slot")
	}
	if load.Free != 0 {
		t.Fatalf("free = %d, want clamped 0", load.Free)
	}
}

func TestComputeProviderLoadZeroSlots(t *testing.T) {
	squad := domain.Provider{ID: "p1", Kind: domain.ProviderInternalSquad}
	projects := []domain.Project{{ID: "pr1", ProviderID: strptr("p1"), Status: domain.ProjectOnTrack}}
	load := engine.ComputeProviderLoad(squad, projects, nil)
	if !load.Overloaded {
		t.Fatalf("unset capacity must overload on any occupancy")
	}
}

func TestComputeProviderLoadExternalPartnerFlex(t *testing.T) {
	partner := domain.Provider{ID: "p1", Kind: domain.ProviderExternalPartner}
	projects := []domain.Project{
		{ID: "pr1", ProviderID: strptr("p1"), Status: domain.ProjectOnTrack},
		{ID: "pr2", ProviderID: strptr("p1"), Status: domain.ProjectOnTrack},
		{ID: "pr3", ProviderID: strptr("p1"), Status: domain.ProjectOnTrack},
	}
	load := engine.ComputeProviderLoad(partner, projects, nil)
	if !load.Flex {
		t.Fatalf("external partner not flex")
	}
	if load.Overloaded {
		t.Fatalf("flex provider can never overload")
	}
	if load.Occupied != 3 {
		t.Fatalf("occupied = %d", load.Occupied)
	}
}

func items(ids ...string) []domain.MeetingItem {
	out := make([]domain.MeetingItem, len(ids))
	for i, id := range ids {
		out[i] = domain.MeetingItem{ID: id, Position: i}
	}
	return out
}

func order(items []domain.MeetingItem) string {
	s := ""
	for _, it := range items {
		s += it.ID
	}
	return s
}

func TestMoveItem(t *testing.T) {
	cases := []struct {
		name     string
		from, to string
		want     string
	}{
		{"down", "a", "c", "bac"},
		{"up", "c", "a", "cab"},
		{"adjacent", "b", "a", "bac"},
		{"same id", "b", "b", "abc"},
		{"missing from", "x", "a", "abc"},
		{"missing to", "a", "x", "abc"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := engine.MoveItem(items("a", "b", "c"), tc.from, tc.to)
			if order(got) != tc.want {
				t.Fatalf("move %s->%s = %q, want %q", tc.from, tc.to, order(got), tc.want)
			}
		})
	}
}

func TestClassifyStaleness(t *testing.T) {
	today := time.Date(2024, 1, 1, 15, 30, 0, 0, time.UTC)
	cases := []struct {
		name       string
		expiration *string
		want       string
	}{
		{"no expiration", nil, domain.DocCurrent},
		{"empty expiration", strptr(""), domain.DocCurrent},
		{"yesterday", strptr("2023-12-31"), domain.DocExpired},
		{"today", strptr("2024-01-01"), domain.DocExpiringSoon},
		{"window boundary", strptr("2024-01-31"), domain.DocExpiringSoon},
		{"past the window", strptr("2024-02-01"), domain.DocCurrent},
		{"unparseable", strptr("soon"), domain.DocCurrent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := engine.ClassifyStaleness(tc.expiration, today, 30)
			if got != tc.want {
				t.Fatalf("staleness = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNextOccurrence(t *testing.T) {
	cases := []struct {
		base, recurrence, want string
	}{
		{"2024-01-10", domain.RecurrenceDaily, "2024-01-11"},
		{"2024-01-10", domain.RecurrenceWeekly, "2024-01-17"},
		{"2024-01-31", domain.RecurrenceMonthly, "2024-03-02"},
		{"2024-02-28", domain.RecurrenceDaily, "2024-02-29"},
	}
	for _, tc := range cases {
		got, err := engine.NextOccurrence(tc.base, tc.recurrence)
		if err != nil {
			t.Fatalf("%s %s: %v", tc.base, tc.recurrence, err)
		}
		if got != tc.want {
			t.Fatalf("%s + %s = %q, want %q", tc.base, tc.recurrence, got, tc.want)
		}
	}
	if _, err := engine.NextOccurrence("not-a-date", domain.RecurrenceDaily); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := engine.NextOccurrence("2024-01-10", domain.RecurrenceNone); err == nil {
		t.Fatalf("expected no-interval error")
	}
}
