package engine

import (
	"context"

	"holdingboard/internal/docspace"
	"holdingboard/internal/domain"
	"holdingboard/internal/repo"
)

// ProjectProgress pairs a project with the completion percentage read from
// its external documentation page. Projects without a page are skipped.
type ProjectProgress struct {
	ProjectID     string  `json:"project_id"`
	Name          string  `json:"name"`
	ExternalDocID string  `json:"external_doc_id"`
	Progress      float64 `json:"progress"`
}

// PortfolioProgress fetches progress for every project in the filter set that
// carries an external doc id. Pages that fail to resolve report 0 rather than
// failing the whole rollup.
func (e Engine) PortfolioProgress(ctx context.Context, docs *docspace.Client, f repo.ProjectFilters) ([]ProjectProgress, error) {
	projects, err := e.Repo.ListProjects(ctx, f)
	if err != nil {
		return nil, err
	}
	var linked []domain.Project
	var ids []string
	for _, p := range projects {
		if p.ExternalDocID != nil && *p.ExternalDocID != "" {
			linked = append(linked, p)
			ids = append(ids, *p.ExternalDocID)
		}
	}
	if len(linked) == 0 {
		return nil, nil
	}
	byID := docs.GetManyProgress(ctx, ids)
	res := make([]ProjectProgress, 0, len(linked))
	for _, p := range linked {
		res = append(res, ProjectProgress{
			ProjectID:     p.ID,
			Name:          p.Name,
			ExternalDocID: *p.ExternalDocID,
			Progress:      byID[*p.ExternalDocID],
		})
	}
	return res, nil
}
