// Package evidence assembles evidence tables from stored measurements for
// callers that reference experiments instead of supplying an inline table.
package evidence

import (
	"sort"
	"strconv"
	"strings"

	"github.com/labforge/estudo-insights-back/internal/domain"
)

// BuildTable turns measurements into one evidence variant per experiment,
// keyed by metric name. The canonical spelling keeps the locale decimal
// comma used across the product's spreadsheets.
func BuildTable(measurements []domain.Measurement) domain.EvidenceTable {
	byExperiment := make(map[string]map[string]domain.EvidenceValue)
	order := make([]string, 0)

	for _, m := range measurements {
		metrics, ok := byExperiment[m.ExperimentID]
		if !ok {
			metrics = make(map[string]domain.EvidenceValue)
			byExperiment[m.ExperimentID] = metrics
			order = append(order, m.ExperimentID)
		}
		metrics[m.Metric] = domain.EvidenceValue{
			Value:     m.Value,
			Canonical: canonicalSpelling(m.Value),
		}
	}

	sort.Strings(order)
	variants := make([]domain.EvidenceVariant, 0, len(order))
	for _, experimentID := range order {
		variants = append(variants, domain.EvidenceVariant{
			Label:   experimentID,
			Metrics: byExperiment[experimentID],
		})
	}
	return domain.EvidenceTable{Variants: variants}
}

// FilterByExperiments keeps only measurements belonging to the given
// experiment ids. Empty filter means keep everything.
func FilterByExperiments(measurements []domain.Measurement, experimentIDs []string) []domain.Measurement {
	if len(experimentIDs) == 0 {
		return measurements
	}

	wanted := make(map[string]struct{}, len(experimentIDs))
	for _, id := range experimentIDs {
		wanted[id] = struct{}{}
	}

	filtered := make([]domain.Measurement, 0, len(measurements))
	for _, m := range measurements {
		if _, ok := wanted[m.ExperimentID]; ok {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

func canonicalSpelling(value float64) string {
	return strings.ReplaceAll(strconv.FormatFloat(value, 'f', -1, 64), ".", ",")
}
