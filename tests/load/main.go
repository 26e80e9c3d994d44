// Command load runs the local latency benchmark against an in-process API
// instance backed by the memory stores. It exists to keep the verification
// and reindex endpoints honest about their latency without needing a
// provisioned database.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/labforge/estudo-insights-back/internal/authz"
	"github.com/labforge/estudo-insights-back/internal/cache"
	"github.com/labforge/estudo-insights-back/internal/domain"
	"github.com/labforge/estudo-insights-back/internal/grounding"
	"github.com/labforge/estudo-insights-back/internal/http/handlers"
	httpserver "github.com/labforge/estudo-insights-back/internal/http"
	"github.com/labforge/estudo-insights-back/internal/indexer"
	"github.com/labforge/estudo-insights-back/internal/queue"
	"github.com/labforge/estudo-insights-back/internal/repository"
	"github.com/labforge/estudo-insights-back/internal/service"
	"github.com/labforge/estudo-insights-back/internal/worker"
)

const benchmarkProjects = 16

type scenarioResult struct {
	Name          string   `json:"name"`
	Total         int      `json:"total"`
	Success       int      `json:"success"`
	Errors        int      `json:"errors"`
	P50MS         float64  `json:"p50_ms"`
	P95MS         float64  `json:"p95_ms"`
	P99MS         float64  `json:"p99_ms"`
	MaxMS         float64  `json:"max_ms"`
	ThroughputRPS float64  `json:"throughput_rps"`
	ErrorSamples  []string `json:"error_samples,omitempty"`
}

type runResult struct {
	GeneratedAtUTC string           `json:"generated_at_utc"`
	Environment    string           `json:"environment"`
	Results        []scenarioResult `json:"results"`
	SLOEvaluation  map[string]bool  `json:"slo_evaluation"`
}

type benchmarkEnv struct {
	server *httptest.Server
	cancel context.CancelFunc
}

func main() {
	verifyTotal := flag.Int("verify-total", 400, "total tabular verification requests")
	verifyConcurrency := flag.Int("verify-concurrency", 32, "concurrency for verification requests")
	intentTotal := flag.Int("intent-total", 300, "total intent detection requests")
	intentConcurrency := flag.Int("intent-concurrency", 24, "concurrency for intent detection requests")
	reindexTotal := flag.Int("reindex-total", 160, "total reindex requests")
	reindexConcurrency := flag.Int("reindex-concurrency", 16, "concurrency for reindex requests")
	trendsTotal := flag.Int("trends-total", 200, "total trend summary requests")
	trendsConcurrency := flag.Int("trends-concurrency", 20, "concurrency for trend summary requests")
	outputPath := flag.String("output", "", "optional path to persist benchmark results JSON")
	flag.Parse()

	env, err := startBenchmarkEnvironment()
	if err != nil {
		log.Fatalf("failed to start local benchmark environment: %v", err)
	}
	defer env.cancel()
	defer env.server.Close()

	client := &http.Client{Timeout: 10 * time.Second}

	verifyScenario := runScenario("verify_tabular_sync", *verifyTotal, *verifyConcurrency, func(index int) error {
		payload := map[string]any{
			"response_text": fmt.Sprintf(
				"O compósito reduziu de aprox. 60%% para 40%% a fração de carga, mantendo 131,5 MPa na rodada %d.",
				index%32,
			),
			"evidence": benchmarkEvidence(),
		}
		return postJSON(client, env.server.URL+"/v1/verify/tabular", payload, nil, http.StatusOK)
	})

	intentScenario := runScenario("intent_detection_sync", *intentTotal, *intentConcurrency, func(index int) error {
		payload := map[string]any{
			"query": fmt.Sprintf(
				"qual experimento da planilha foi de 60%% para 40%% de carga no lote %d?",
				index%16,
			),
		}
		return postJSON(client, env.server.URL+"/v1/intent/tabular", payload, nil, http.StatusOK)
	})

	reindexScenario := runScenario("reindex_enqueue", *reindexTotal, *reindexConcurrency, func(index int) error {
		url := fmt.Sprintf("%s/v1/projects/load-proj-%d/reindex", env.server.URL, index%benchmarkProjects)
		return postJSON(client, url, map[string]any{}, nil, http.StatusOK)
	})

	trendsScenario := runScenario("trends_summary", *trendsTotal, *trendsConcurrency, func(index int) error {
		url := fmt.Sprintf("%s/v1/projects/load-proj-%d/trends", env.server.URL, index%benchmarkProjects)
		return getJSON(client, url, http.StatusOK)
	})

	results := []scenarioResult{
		verifyScenario,
		intentScenario,
		reindexScenario,
		trendsScenario,
	}

	slo := map[string]bool{
		"verification_p95_le_500ms": verifyScenario.P95MS <= 500,
		"reindex_p95_le_1000ms":     reindexScenario.P95MS <= 1000,
		"trends_p95_le_500ms":       trendsScenario.P95MS <= 500,
	}

	report := runResult{
		GeneratedAtUTC: time.Now().UTC().Format(time.RFC3339Nano),
		Environment:    "local-httptest",
		Results:        results,
		SLOEvaluation:  slo,
	}

	encoded, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatalf("failed to marshal benchmark report: %v", err)
	}

	if *outputPath != "" {
		if err := os.WriteFile(*outputPath, encoded, 0o644); err != nil {
			log.Fatalf("failed to write output file: %v", err)
		}
	}

	_, _ = fmt.Fprintln(os.Stdout, string(encoded))
}

func benchmarkEvidence() map[string]any {
	return map[string]any{
		"variants": []map[string]any{
			{
				"label": "exp-bench-a",
				"metrics": map[string]any{
					"fracao_carga":         map[string]any{"value": 60.0, "value_canonical": "60"},
					"resistencia_flexural": map[string]any{"value": 131.5, "value_canonical": "131,5"},
				},
			},
			{
				"label": "exp-bench-b",
				"metrics": map[string]any{
					"fracao_carga":         map[string]any{"value": 40.0, "value_canonical": "40"},
					"resistencia_flexural": map[string]any{"value": 98.2, "value_canonical": "98,2"},
				},
			},
		},
	}
}

func startBenchmarkEnvironment() (*benchmarkEnv, error) {
	ctx, cancel := context.WithCancel(context.Background())
	logger := log.New(io.Discard, "", 0)

	jobsRepo := repository.NewMemoryJobsRepository()
	entitiesRepo := repository.NewMemoryEntitiesRepository()
	seedBenchmarkProjects(entitiesRepo)

	noop := indexer.NewNoopIndexer(logger)
	notifier := queue.NewLocalNotifier()

	reindexService := service.NewReindexService(jobsRepo, entitiesRepo, noop, notifier, logger)
	trendsService := service.NewTrendsService(
		entitiesRepo,
		cache.NewResultsCache[service.TrendsResult](cache.Config{TTL: 10 * time.Minute}),
		logger,
	)
	verificationService := service.NewVerificationService(entitiesRepo, grounding.DefaultConfig(), logger)
	indexWorker := worker.New(jobsRepo, noop, logger)

	api := handlers.NewAPI(handlers.APIDependencies{
		Reindex:      reindexService,
		Trends:       trendsService,
		Verification: verificationService,
		Runner:       indexWorker,
		Jobs:         jobsRepo,
		Roles:        authz.NewStaticRoleChecker(nil),
		Logger:       logger,
	})
	router := httpserver.NewRouter(httpserver.RouterDependencies{
		API:            api,
		Logger:         logger,
		AuthToken:      "",
		RateLimitRPS:   20000,
		RateLimitBurst: 20000,
	})

	go indexWorker.Start(ctx, notifier, 25, 50*time.Millisecond)

	server := httptest.NewServer(router)
	return &benchmarkEnv{
		server: server,
		cancel: cancel,
	}, nil
}

func seedBenchmarkProjects(entities *repository.MemoryEntitiesRepository) {
	for p := 0; p < benchmarkProjects; p++ {
		projectID := fmt.Sprintf("load-proj-%d", p)
		for r := 0; r < 4; r++ {
			entities.SeedReport(projectID, fmt.Sprintf("report-%d-%d", p, r))
		}
		entities.SeedTask(projectID, fmt.Sprintf("task-%d", p))

		base := 100.0 + float64(p)
		for i, offset := range []float64{-12.3, -4.1, 0.0, 6.2, 11.8} {
			entities.SeedMeasurement(projectID, domain.Measurement{
				ExperimentID: fmt.Sprintf("exp-%d-%d", p, i),
				Metric:       "resistencia_flexural",
				Value:        base + offset,
				Unit:         "MPa",
			})
		}
	}
}

func runScenario(
	name string,
	total int,
	concurrency int,
	requestFn func(index int) error,
) scenarioResult {
	if total <= 0 {
		return scenarioResult{Name: name}
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	startedAt := time.Now()
	type sample struct {
		durationMS float64
		err        string
	}

	jobs := make(chan int, total)
	results := make(chan sample, total)
	for i := 0; i < total; i++ {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				requestStart := time.Now()
				err := requestFn(index)
				s := sample{
					durationMS: float64(time.Since(requestStart).Microseconds()) / 1000.0,
				}
				if err != nil {
					s.err = err.Error()
				}
				results <- s
			}
		}()
	}
	wg.Wait()
	close(results)

	durations := make([]float64, 0, total)
	errorSamples := make([]string, 0, 5)
	success := 0
	errorsCount := 0
	for item := range results {
		durations = append(durations, item.durationMS)
		if item.err == "" {
			success++
			continue
		}
		errorsCount++
		if len(errorSamples) < 5 {
			errorSamples = append(errorSamples, item.err)
		}
	}

	sort.Float64s(durations)
	elapsedSeconds := time.Since(startedAt).Seconds()
	throughput := 0.0
	if elapsedSeconds > 0 {
		throughput = float64(total) / elapsedSeconds
	}

	return scenarioResult{
		Name:          name,
		Total:         total,
		Success:       success,
		Errors:        errorsCount,
		P50MS:         percentile(durations, 0.50),
		P95MS:         percentile(durations, 0.95),
		P99MS:         percentile(durations, 0.99),
		MaxMS:         percentile(durations, 1.00),
		ThroughputRPS: round2(throughput),
		ErrorSamples:  errorSamples,
	}
}

func postJSON(
	client *http.Client,
	url string,
	payload any,
	headers map[string]string,
	expectedStatus int,
) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	request, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")
	for key, value := range headers {
		request.Header.Set(key, value)
	}

	response, err := client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode != expectedStatus {
		body, _ := io.ReadAll(io.LimitReader(response.Body, 1024))
		return fmt.Errorf("unexpected status %d (expected %d): %s", response.StatusCode, expectedStatus, string(body))
	}
	_, _ = io.Copy(io.Discard, response.Body)
	return nil
}

func getJSON(client *http.Client, url string, expectedStatus int) error {
	request, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	request.Header.Set("Accept", "application/json")

	response, err := client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode != expectedStatus {
		body, _ := io.ReadAll(io.LimitReader(response.Body, 1024))
		return fmt.Errorf("unexpected status %d (expected %d): %s", response.StatusCode, expectedStatus, string(body))
	}
	_, _ = io.Copy(io.Discard, response.Body)
	return nil
}

func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if p <= 0 {
		return round2(values[0])
	}
	if p >= 1 {
		return round2(values[len(values)-1])
	}
	rank := int(math.Ceil(float64(len(values))*p)) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(values) {
		rank = len(values) - 1
	}
	return round2(values[rank])
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
