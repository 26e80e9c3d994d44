package stats

import (
	"math"
	"testing"

	"github.com/labforge/estudo-insights-back/internal/domain"
)

func measurementsFor(metric string, values ...float64) []domain.Measurement {
	out := make([]domain.Measurement, 0, len(values))
	for _, v := range values {
		out = append(out, domain.Measurement{
			ExperimentID: metric + "-exp",
			Metric:       metric,
			Value:        v,
			Unit:         "MPa",
		})
	}
	return out
}

func TestComputeTrendsSkipsSmallGroups(t *testing.T) {
	trends := ComputeTrends(measurementsFor("flexural_strength", 100, 101), nil)
	if len(trends) != 0 {
		t.Fatalf("expected no trend for group of 2, got %d", len(trends))
	}
}

func TestComputeTrendsConstantValuesAreStable(t *testing.T) {
	trends := ComputeTrends(measurementsFor("dureza", 10, 10, 10), nil)
	if len(trends) != 1 {
		t.Fatalf("expected one trend, got %d", len(trends))
	}

	trend := trends[0]
	if trend.Mean != 10 {
		t.Errorf("mean = %v, want 10", trend.Mean)
	}
	if trend.StdDev != 0 {
		t.Errorf("stddev = %v, want 0", trend.StdDev)
	}
	if trend.CV != 0 {
		t.Errorf("cv = %v, want 0", trend.CV)
	}
	if trend.Kind != domain.TrendStable {
		t.Errorf("kind = %s, want stable", trend.Kind)
	}
	if len(trend.Correlations) != 0 {
		t.Errorf("expected no correlations without conditions, got %d", len(trend.Correlations))
	}
}

func TestComputeTrendsHighCVIsHighDispersion(t *testing.T) {
	// mean 50, stddev ~49 -> CV well above 30.
	trends := ComputeTrends(measurementsFor("sorcao", 10, 40, 100), nil)
	if len(trends) != 1 {
		t.Fatalf("expected one trend, got %d", len(trends))
	}
	if trends[0].Kind != domain.TrendHighDispersion {
		t.Fatalf("kind = %s, want high_dispersion (cv=%v)", trends[0].Kind, trends[0].CV)
	}
}

func TestComputeTrendsIQRRatioTriggersHighDispersion(t *testing.T) {
	// CV stays under 30 but IQR/mean exceeds 0.2.
	values := []float64{80, 80, 80, 100, 100, 100}
	trends := ComputeTrends(measurementsFor("modulo", values...), nil)
	if len(trends) != 1 {
		t.Fatalf("expected one trend, got %d", len(trends))
	}
	trend := trends[0]
	if trend.CV > 30 {
		t.Fatalf("test premise broken: cv=%v should be under 30", trend.CV)
	}
	if trend.Kind != domain.TrendHighDispersion {
		t.Fatalf("kind = %s, want high_dispersion via IQR ratio", trend.Kind)
	}
}

func TestComputeTrendsZeroMeanHasZeroCV(t *testing.T) {
	trends := ComputeTrends(measurementsFor("delta_e", -1, 0, 1), nil)
	if len(trends) != 1 {
		t.Fatalf("expected one trend, got %d", len(trends))
	}
	if trends[0].CV != 0 {
		t.Fatalf("cv = %v, want 0 for zero mean", trends[0].CV)
	}
}

func TestComputeTrendsSampleStdDev(t *testing.T) {
	trends := ComputeTrends(measurementsFor("resistencia", 8, 10, 12), nil)
	if len(trends) != 1 {
		t.Fatalf("expected one trend, got %d", len(trends))
	}
	if got, want := trends[0].StdDev, 2.0; math.Abs(got-want) > 1e-9 {
		t.Fatalf("sample stddev = %v, want %v", got, want)
	}
}

func TestComputeTrendsConditionCorrelations(t *testing.T) {
	measurements := []domain.Measurement{
		{ExperimentID: "e1", Metric: "flexural", Value: 100},
		{ExperimentID: "e2", Metric: "flexural", Value: 110},
		{ExperimentID: "e3", Metric: "flexural", Value: 90},
	}
	conditions := []domain.ExperimentCondition{
		{ExperimentID: "e1", Key: "cura", Value: "40s"},
		{ExperimentID: "e2", Key: "cura", Value: "40s"},
		{ExperimentID: "e3", Key: "cura", Value: "20s"},
	}

	trends := ComputeTrends(measurements, conditions)
	if len(trends) != 1 {
		t.Fatalf("expected one trend, got %d", len(trends))
	}

	correlations := trends[0].Correlations
	if len(correlations) != 1 {
		t.Fatalf("expected one correlation (singleton groups dropped), got %d", len(correlations))
	}
	c := correlations[0]
	if c.Key != "cura" || c.Value != "40s" {
		t.Fatalf("correlation group = %s/%s, want cura/40s", c.Key, c.Value)
	}
	if c.N != 2 {
		t.Errorf("correlation n = %d, want 2", c.N)
	}
	if math.Abs(c.Avg-105) > 1e-9 {
		t.Errorf("correlation avg = %v, want 105", c.Avg)
	}
}

func TestConfidenceScoring(t *testing.T) {
	cases := []struct {
		n    int
		want float64
	}{
		{3, 0.5},
		{4, 0.5},
		{5, 0.7},
		{9, 0.7},
		{10, 0.9},
		{25, 0.9},
	}
	for _, tc := range cases {
		if got := confidenceFor(tc.n); got != tc.want {
			t.Errorf("confidenceFor(%d) = %v, want %v", tc.n, got, tc.want)
		}
	}
}

func TestComputeTrendsRanksLargerSamplesFirst(t *testing.T) {
	measurements := append(
		measurementsFor("metric_a", 1, 2, 3),
		measurementsFor("metric_b", 4, 5, 6, 7)...,
	)
	trends := ComputeTrends(measurements, nil)
	if len(trends) != 2 {
		t.Fatalf("expected two trends, got %d", len(trends))
	}
	if trends[0].Metric != "metric_b" {
		t.Fatalf("expected metric_b (n=4) first, got %s", trends[0].Metric)
	}
}
