package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labforge/estudo-insights-back/internal/cache"
	"github.com/labforge/estudo-insights-back/internal/domain"
	"github.com/labforge/estudo-insights-back/internal/metrics"
	"github.com/labforge/estudo-insights-back/internal/repository"
	"github.com/labforge/estudo-insights-back/internal/stats"
)

// maxInsightContent caps the content written to the knowledge store.
const maxInsightContent = 500

// TrendsResult reports one trend computation run.
type TrendsResult struct {
	ProjectID              string               `json:"project_id"`
	TrendsDetected         int                  `json:"trends_detected"`
	InsightsCreated        int                  `json:"insights_created"`
	MetricsAnalyzed        int                  `json:"metrics_analyzed"`
	MeasurementsConsidered int                     `json:"measurements_considered"`
	Trends                 []domain.MetricTrend    `json:"trends"`
	Insights               []*domain.KnowledgeItem `json:"insights,omitempty"`
	ComputedAt             time.Time               `json:"computed_at"`
}

// TrendsService runs the statistical engine over a project's measurements
// and owns persistence of the derived insights: the previous auto-generated
// batch is soft-deleted and the new one inserted, so exactly one batch is
// live per project and recomputation never accumulates duplicates.
type TrendsService struct {
	entities repository.EntitiesRepository
	results  *cache.ResultsCache[TrendsResult]
	logger   *log.Logger
}

func NewTrendsService(
	entities repository.EntitiesRepository,
	results *cache.ResultsCache[TrendsResult],
	logger *log.Logger,
) *TrendsService {
	return &TrendsService{
		entities: entities,
		results:  results,
		logger:   logger,
	}
}

func (s *TrendsService) Compute(ctx context.Context, projectID string) (TrendsResult, error) {
	measurements, err := s.entities.ListMeasurements(ctx, projectID)
	if err != nil {
		return TrendsResult{}, fmt.Errorf("list measurements: %w", err)
	}

	result := TrendsResult{
		ProjectID:              projectID,
		MeasurementsConsidered: len(measurements),
		ComputedAt:             time.Now().UTC(),
	}

	experimentIDs := uniqueExperimentIDs(measurements)
	conditions, err := s.entities.ListConditions(ctx, experimentIDs)
	if err != nil {
		return TrendsResult{}, fmt.Errorf("list conditions: %w", err)
	}

	metricNames := make(map[string]struct{})
	for _, m := range measurements {
		metricNames[m.Metric] = struct{}{}
	}
	result.MetricsAnalyzed = len(metricNames)

	trends := stats.ComputeTrends(measurements, conditions)
	result.Trends = trends
	result.TrendsDetected = len(trends)

	items := make([]*domain.KnowledgeItem, 0, len(trends))
	now := time.Now().UTC()
	for _, trend := range trends {
		items = append(items, buildInsight(projectID, trend, now))
	}

	// Zero measurements is a successful no-op for the counters, but the
	// replace still runs so stale insights from removed data disappear.
	if err := s.entities.ReplaceTrendItems(ctx, projectID, items); err != nil {
		return TrendsResult{}, fmt.Errorf("replace trend items: %w", err)
	}
	result.InsightsCreated = len(items)
	result.Insights = items

	metrics.TrendsComputed.Add(float64(len(trends)))
	metrics.InsightsWritten.Add(float64(len(items)))

	if s.results != nil {
		s.results.Put(projectID, result)
	}
	if s.logger != nil {
		s.logger.Printf(
			"trends computed project=%s metrics=%d trends=%d insights=%d measurements=%d",
			projectID,
			result.MetricsAnalyzed,
			result.TrendsDetected,
			result.InsightsCreated,
			result.MeasurementsConsidered,
		)
	}
	return result, nil
}

// Summary serves the cached last computation. On a cache miss it reads the
// persisted insight batch instead of recomputing: reads never touch the
// knowledge store, Compute is the only write path.
func (s *TrendsService) Summary(ctx context.Context, projectID string) (TrendsResult, error) {
	if s.results != nil {
		if cached, ok := s.results.Get(projectID); ok {
			return cached, nil
		}
	}

	items, err := s.entities.ListTrendItems(ctx, projectID)
	if err != nil {
		return TrendsResult{}, fmt.Errorf("list trend items: %w", err)
	}

	result := TrendsResult{
		ProjectID:       projectID,
		TrendsDetected:  len(items),
		InsightsCreated: len(items),
		Insights:        items,
	}
	for _, item := range items {
		if item.CreatedAt.After(result.ComputedAt) {
			result.ComputedAt = item.CreatedAt
		}
	}
	return result, nil
}

func buildInsight(projectID string, trend domain.MetricTrend, now time.Time) *domain.KnowledgeItem {
	title := fmt.Sprintf("Tendência de %s", trend.Metric)

	var content strings.Builder
	fmt.Fprintf(
		&content,
		"Métrica %s: média %.2f %s, desvio padrão %.2f, CV %.1f%% em %d medições (%s).",
		trend.Metric,
		trend.Mean,
		trend.Unit,
		trend.StdDev,
		trend.CV,
		trend.N,
		trendLabel(trend.Kind),
	)
	for _, c := range trend.Correlations {
		fmt.Fprintf(&content, " Condição %s=%s: média %.2f (n=%d).", c.Key, c.Value, c.Avg, c.N)
	}

	evidence := fmt.Sprintf("n=%d, mean=%.4f, stddev=%.4f, cv=%.2f", trend.N, trend.Mean, trend.StdDev, trend.CV)

	return &domain.KnowledgeItem{
		ID:               uuid.NewString(),
		ProjectID:        projectID,
		Category:         domain.KnowledgeCategoryTrend,
		Title:            title,
		Content:          truncate(content.String(), maxInsightContent),
		Evidence:         evidence,
		Confidence:       trend.Confidence,
		AutoValidated:    true,
		ValidationReason: domain.ValidationReasonStatEngine,
		CreatedAt:        now,
	}
}

func trendLabel(kind domain.TrendKind) string {
	switch kind {
	case domain.TrendHighDispersion:
		return "alta dispersão"
	case domain.TrendStable:
		return "estável"
	default:
		return string(kind)
	}
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit]
}

func uniqueExperimentIDs(measurements []domain.Measurement) []string {
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, m := range measurements {
		if _, ok := seen[m.ExperimentID]; ok {
			continue
		}
		seen[m.ExperimentID] = struct{}{}
		ids = append(ids, m.ExperimentID)
	}
	return ids
}
