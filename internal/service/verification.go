package service

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/labforge/estudo-insights-back/internal/domain"
	"github.com/labforge/estudo-insights-back/internal/evidence"
	"github.com/labforge/estudo-insights-back/internal/grounding"
	"github.com/labforge/estudo-insights-back/internal/metrics"
	"github.com/labforge/estudo-insights-back/internal/repository"
)

// VerificationService fronts the grounding heuristics. Evidence comes
// either inline from the retrieval collaborator or assembled here from the
// project's stored measurements.
type VerificationService struct {
	entities repository.EntitiesRepository
	config   grounding.Config
	logger   *log.Logger
}

func NewVerificationService(
	entities repository.EntitiesRepository,
	config grounding.Config,
	logger *log.Logger,
) *VerificationService {
	return &VerificationService{
		entities: entities,
		config:   config,
		logger:   logger,
	}
}

func (s *VerificationService) DetectIntent(query string) domain.TabularIntent {
	return grounding.DetectTabularIntent(query, s.config)
}

func (s *VerificationService) Verify(responseText string, table domain.EvidenceTable) domain.VerificationResult {
	result := grounding.VerifyTabularResponse(responseText, table, s.config)

	metrics.VerificationChecks.WithLabelValues(strconv.FormatBool(result.Verified)).Inc()
	metrics.UngroundedTokens.Observe(float64(result.UngroundedCount))

	if !result.Verified && s.logger != nil {
		s.logger.Printf("grounding check failed ungrounded=%d", result.UngroundedCount)
	}
	return result
}

// VerifyAgainstProject builds the evidence table from the project's stored
// measurements, optionally narrowed to specific experiments.
func (s *VerificationService) VerifyAgainstProject(
	ctx context.Context,
	responseText string,
	projectID string,
	experimentIDs []string,
) (domain.VerificationResult, error) {
	measurements, err := s.entities.ListMeasurements(ctx, projectID)
	if err != nil {
		return domain.VerificationResult{}, fmt.Errorf("list measurements: %w", err)
	}

	filtered := evidence.FilterByExperiments(measurements, experimentIDs)
	table := evidence.BuildTable(filtered)
	return s.Verify(responseText, table), nil
}
