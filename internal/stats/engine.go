// Package stats derives trend insights from raw experimental measurements.
// Everything here is pure computation over its inputs; persistence of the
// resulting insights belongs to the trends service.
package stats

import (
	"math"
	"sort"

	"github.com/labforge/estudo-insights-back/internal/domain"
)

// MinSampleSize is the smallest metric group worth characterizing. Below
// this there is not enough signal to talk about dispersion.
const MinSampleSize = 3

const (
	highDispersionCV       = 30.0
	highDispersionIQRRatio = 0.2
)

// ComputeTrends groups measurements by metric, summarizes each group with
// at least MinSampleSize values and correlates values against the
// experimental conditions recorded for their experiments.
func ComputeTrends(
	measurements []domain.Measurement,
	conditions []domain.ExperimentCondition,
) []domain.MetricTrend {
	groups := make(map[string][]domain.Measurement)
	order := make([]string, 0)
	for _, m := range measurements {
		if _, seen := groups[m.Metric]; !seen {
			order = append(order, m.Metric)
		}
		groups[m.Metric] = append(groups[m.Metric], m)
	}

	conditionsByExperiment := make(map[string][]domain.ExperimentCondition)
	for _, c := range conditions {
		conditionsByExperiment[c.ExperimentID] = append(conditionsByExperiment[c.ExperimentID], c)
	}

	trends := make([]domain.MetricTrend, 0, len(order))
	for _, metric := range order {
		group := groups[metric]
		if len(group) < MinSampleSize {
			continue
		}

		values := make([]float64, 0, len(group))
		for _, m := range group {
			values = append(values, m.Value)
		}

		mean := meanOf(values)
		stddev := sampleStdDev(values, mean)
		cv := 0.0
		if mean != 0 {
			cv = 100 * stddev / math.Abs(mean)
		}

		kind := domain.TrendStable
		if cv > highDispersionCV {
			kind = domain.TrendHighDispersion
		} else if mean != 0 {
			iqr := interquartileRange(values)
			if iqr/mean > highDispersionIQRRatio {
				kind = domain.TrendHighDispersion
			}
		}

		trends = append(trends, domain.MetricTrend{
			Metric:       metric,
			Unit:         group[0].Unit,
			N:            len(values),
			Mean:         mean,
			StdDev:       stddev,
			CV:           cv,
			Kind:         kind,
			Correlations: correlate(group, conditionsByExperiment),
			Confidence:   confidenceFor(len(values)),
		})
	}

	// Strongest signal first: larger samples, then higher dispersion.
	sort.SliceStable(trends, func(i, j int) bool {
		if trends[i].N != trends[j].N {
			return trends[i].N > trends[j].N
		}
		return trends[i].CV > trends[j].CV
	})
	return trends
}

func correlate(
	group []domain.Measurement,
	conditionsByExperiment map[string][]domain.ExperimentCondition,
) []domain.ConditionCorrelation {
	type bucket struct {
		key   string
		value string
		sum   float64
		n     int
	}

	buckets := make(map[[2]string]*bucket)
	order := make([][2]string, 0)
	for _, m := range group {
		for _, c := range conditionsByExperiment[m.ExperimentID] {
			id := [2]string{c.Key, c.Value}
			entry, ok := buckets[id]
			if !ok {
				entry = &bucket{key: c.Key, value: c.Value}
				buckets[id] = entry
				order = append(order, id)
			}
			entry.sum += m.Value
			entry.n++
		}
	}

	correlations := make([]domain.ConditionCorrelation, 0)
	for _, id := range order {
		entry := buckets[id]
		if entry.n < 2 {
			continue
		}
		correlations = append(correlations, domain.ConditionCorrelation{
			Key:   entry.key,
			Value: entry.value,
			Avg:   entry.sum / float64(entry.n),
			N:     entry.n,
		})
	}
	return correlations
}

func confidenceFor(n int) float64 {
	switch {
	case n >= 10:
		return 0.9
	case n >= 5:
		return 0.7
	default:
		return 0.5
	}
}

func meanOf(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdDev uses the n-1 denominator; groups here are samples of a
// metric's population, not the population itself.
func sampleStdDev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		diff := v - mean
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

// interquartileRange uses nearest-rank percentiles on the sorted values.
func interquartileRange(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return nearestRank(sorted, 75) - nearestRank(sorted, 25)
}

func nearestRank(sorted []float64, percentile float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(percentile / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}
