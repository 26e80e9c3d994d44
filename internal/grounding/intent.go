package grounding

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/labforge/estudo-insights-back/internal/domain"
)

var (
	percentPattern = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*%`)
	fromToPattern  = regexp.MustCompile(`(?i)\bde\s+(?:aprox\.?\s*|~\s*)?(\d+(?:[.,]\d+)?)\s*%?\s+(?:para|a|até)\s+(?:aprox\.?\s*|~\s*)?(\d+(?:[.,]\d+)?)`)
	tildePattern   = regexp.MustCompile(`~\s*(\d+(?:[.,]\d+)?)\s*(?:a|para|→|->)\s*~\s*(\d+(?:[.,]\d+)?)`)
)

// DetectTabularIntent classifies whether a query is asking about structured
// experiment/spreadsheet data and extracts the numbers and materials it
// targets. Pure function; tune it through cfg, not by changing the flow.
func DetectTabularIntent(query string, cfg Config) domain.TabularIntent {
	lower := strings.ToLower(query)

	values := extractNumericMentions(lower)
	targets := make([]domain.NumericTarget, 0, len(values))
	for _, value := range values {
		targets = append(targets, domain.NumericTarget{
			Value:     value,
			Tolerance: toleranceFor(value),
		})
	}

	intent := domain.TabularIntent{NumericTargets: targets}

	hasFiller := containsAny(lower, cfg.FillerKeywords)
	hasTable := containsAny(lower, cfg.TableKeywords)
	if hasFiller {
		intent.TargetFeature = FillerFeature
	}
	for _, material := range cfg.KnownMaterials {
		if strings.Contains(lower, material) {
			intent.TargetMaterials = append(intent.TargetMaterials, material)
		}
	}

	hasTransition := fromToPattern.MatchString(lower) ||
		tildePattern.MatchString(lower) ||
		containsAny(lower, cfg.ChangeVerbs)

	if (hasTable || hasFiller) && (len(values) >= 2 || hasTransition) {
		intent.IsExcelTableQuery = true
	}
	if strings.Contains(lower, "experimento") && len(values) >= 2 {
		intent.IsExcelTableQuery = true
	}

	return intent
}

// extractNumericMentions pulls numbers from percentage, "de X para Y" and
// "~X a ~Y" phrasings, deduplicated and sorted for stable output.
func extractNumericMentions(lower string) []float64 {
	seen := make(map[float64]struct{})

	for _, match := range percentPattern.FindAllStringSubmatch(lower, -1) {
		addNumber(seen, match[1])
	}
	for _, match := range fromToPattern.FindAllStringSubmatch(lower, -1) {
		addNumber(seen, match[1])
		addNumber(seen, match[2])
	}
	for _, match := range tildePattern.FindAllStringSubmatch(lower, -1) {
		addNumber(seen, match[1])
		addNumber(seen, match[2])
	}

	values := make([]float64, 0, len(seen))
	for value := range seen {
		values = append(values, value)
	}
	sort.Float64s(values)
	return values
}

func addNumber(seen map[float64]struct{}, raw string) {
	value, err := parseLocaleNumber(raw)
	if err != nil {
		return
	}
	seen[value] = struct{}{}
}

// parseLocaleNumber accepts both decimal spellings ("131.5" and "131,5").
func parseLocaleNumber(raw string) (float64, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	return strconv.ParseFloat(normalized, 64)
}

// toleranceFor widens matching for percentage-scale values; fraction-scale
// values need a tight band.
func toleranceFor(value float64) float64 {
	if value > 10 {
		return 3
	}
	return 0.05
}

func containsAny(lower string, keywords []string) bool {
	for _, keyword := range keywords {
		if keyword != "" && strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
