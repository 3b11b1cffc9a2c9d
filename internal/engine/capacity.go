package engine

import "holdingboard/internal/domain"

// Allocation is one unit of provider load: an active project assignment or a
// scheduled task.
type Allocation struct {
	Kind  string `json:"kind" enum:"project,task"`
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ProviderLoad is the computed occupancy picture for one provider. Flex is
// true for external partners, whose free capacity is unbounded; Free is
// meaningful only when Flex is false.
type ProviderLoad struct {
	ProviderID  string       `json:"provider_id"`
	Occupied    int          `json:"occupied"`
	Free        int          `json:"free"`
	Flex        bool         `json:"flex"`
	Overloaded  bool         `json:"overloaded"`
	Allocations []Allocation `json:"allocations,omitempty"`
}

// ComputeProviderLoad aggregates a provider's active allocations from
// already-fetched projects and tasks. Projects count while not completed;
// tasks count only when scheduled (due date set), tasks without a due date
// are backlog. The function is pure: callers re-run it against
// fresh data after any write that can move an allocation.
func ComputeProviderLoad(p domain.Provider, projects []domain.Project, tasks []domain.Task) ProviderLoad {
	load := ProviderLoad{ProviderID: p.ID}
	for _, pr := range projects {
		if pr.ProviderID == nil || *pr.ProviderID != p.ID {
			continue
		}
		if pr.Status == domain.ProjectCompleted {
			continue
		}
		load.Allocations = append(load.Allocations, Allocation{Kind: "project", ID: pr.ID, Title: pr.Name})
	}
	for _, t := range tasks {
		if t.ProviderID == nil || *t.ProviderID != p.ID {
			continue
		}
		if t.DueDate == nil {
			continue
		}
		load.Allocations = append(load.Allocations, Allocation{Kind: "task", ID: t.ID, Title: t.Title})
	}
	load.Occupied = len(load.Allocations)
	if p.Kind == domain.ProviderExternalPartner {
		load.Flex = true
		return load
	}
	// Unset capacity means zero slots, so any occupancy overloads.
	load.Free = p.CapacitySlots - load.Occupied
	if load.Free < 0 {
		load.Free = 0
	}
	load.Overloaded = load.Occupied > p.CapacitySlots
	return load
}
