package engine

import (
	"context"
	"time"

	"holdingboard/internal/domain"
	"holdingboard/internal/repo"
)

// ClassifyStaleness derives the staleness class of an expiration date against
// a reference day. Docs without an expiration never go stale. windowDays is
// how far out a document counts as expiring soon.
func ClassifyStaleness(expiration *string, today time.Time, windowDays int) string {
	if expiration == nil || *expiration == "" {
		return domain.DocCurrent
	}
	exp, err := time.Parse("2006-01-02", *expiration)
	if err != nil {
		return domain.DocCurrent
	}
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if exp.Before(day) {
		return domain.DocExpired
	}
	if !exp.After(day.AddDate(0, 0, windowDays)) {
		return domain.DocExpiringSoon
	}
	return domain.DocCurrent
}

// ComplianceItem is one category slot of a company's compliance picture. A
// category with no document on file reports MISSING with empty staleness.
type ComplianceItem struct {
	Category   string  `json:"category"`
	Status     string  `json:"status" enum:"VALID,MISSING"`
	Staleness  string  `json:"staleness,omitempty" enum:"EXPIRED,EXPIRING_SOON,CURRENT"`
	DocID      string  `json:"doc_id,omitempty"`
	Expiration *string `json:"expiration,omitempty" format:"date"`
	FileURL    *string `json:"file_url,omitempty"`
}

type ComplianceSummary struct {
	CompanyID string           `json:"company_id"`
	Items     []ComplianceItem `json:"items"`
}

// ComplianceStatus reports one item per configured category for a company,
// annotating stored docs with their derived staleness.
func (e Engine) ComplianceStatus(ctx context.Context, companyID string) (ComplianceSummary, error) {
	if _, err := e.Repo.GetCompany(ctx, companyID); err != nil {
		return ComplianceSummary{}, err
	}
	docs, err := e.Repo.ListRegulatoryDocs(ctx, repo.RegulatoryDocFilters{CompanyID: companyID})
	if err != nil {
		return ComplianceSummary{}, err
	}
	byCategory := map[string]domain.RegulatoryDoc{}
	var extra []string
	for _, d := range docs {
		if _, seen := byCategory[d.Category]; !seen {
			byCategory[d.Category] = d
		}
		known := false
		for _, c := range e.categories() {
			if c == d.Category {
				known = true
				break
			}
		}
		if !known {
			dup := false
			for _, c := range extra {
				if c == d.Category {
					dup = true
					break
				}
			}
			if !dup {
				extra = append(extra, d.Category)
			}
		}
	}
	window := 30
	if e.Config != nil {
		window = e.Config.ExpiringWindowDays()
	}
	today := e.now().UTC()
	summary := ComplianceSummary{CompanyID: companyID}
	for _, category := range append(e.categories(), extra...) {
		d, ok := byCategory[category]
		if !ok {
			summary.Items = append(summary.Items, ComplianceItem{Category: category, Status: domain.DocMissing})
			continue
		}
		item := ComplianceItem{
			Category:   category,
			Status:     d.Status,
			DocID:      d.ID,
			Expiration: d.Expiration,
			FileURL:    d.FileURL,
		}
		if d.Status == domain.DocValid {
			item.Staleness = ClassifyStaleness(d.Expiration, today, window)
		}
		summary.Items = append(summary.Items, item)
	}
	return summary, nil
}

func (e Engine) categories() []string {
	if e.Config != nil && len(e.Config.Compliance.Categories) > 0 {
		return e.Config.Compliance.Categories
	}
	return nil
}
