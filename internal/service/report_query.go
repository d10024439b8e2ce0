package service

import (
	"sort"
	"strings"

	"github.com/TomaX04/Voz-del-Caser-o/internal/models"
)

// Project returns the reports matching every predicate of filter, newest
// first. Reports created at the same instant keep their collection order.
func Project(all []models.Report, filter models.ReportFilter) []models.Report {
	query := strings.ToLower(filter.Query)
	out := make([]models.Report, 0, len(all))
	for _, r := range all {
		if matches(r, filter, query) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Matches reports whether r satisfies filter.
func Matches(r models.Report, filter models.ReportFilter) bool {
	return matches(r, filter, strings.ToLower(filter.Query))
}

func matches(r models.Report, filter models.ReportFilter, lowerQuery string) bool {
	if !isAll(filter.Status) && string(r.Status) != filter.Status {
		return false
	}
	if !isAll(filter.Category) && string(r.Category) != filter.Category {
		return false
	}
	if lowerQuery == "" {
		return true
	}
	return strings.Contains(searchText(r), lowerQuery)
}

// searchText is the haystack for free-text queries. Comments and history are
// not searched.
func searchText(r models.Report) string {
	return strings.ToLower(strings.Join([]string{r.Title, r.Description, r.Place, r.CreatedBy.Name}, " "))
}

func isAll(v string) bool {
	return v == "" || v == models.FilterAll
}

// Aggregate counts the whole collection by status and category. Every known
// value is present even at zero; unknown values from old data are counted
// under their raw key.
func Aggregate(all []models.Report) models.ReportCounts {
	counts := models.ReportCounts{
		Total:      len(all),
		ByStatus:   make(map[string]int, len(models.ReportStatuses)),
		ByCategory: make(map[string]int, len(models.ReportCategories)),
	}
	for _, s := range models.ReportStatuses {
		counts.ByStatus[string(s)] = 0
	}
	for _, c := range models.ReportCategories {
		counts.ByCategory[string(c)] = 0
	}
	for _, r := range all {
		counts.ByStatus[string(r.Status)]++
		counts.ByCategory[string(r.Category)]++
	}
	return counts
}
