package grounding

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/labforge/estudo-insights-back/internal/domain"
)

var numberTokenPattern = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

const sampleOffenders = 5

// VerifyTabularResponse checks that every measurement-like number in a
// generated response traces back to the evidence table. With no evidence
// there is nothing to contradict, so the response passes trivially.
func VerifyTabularResponse(
	responseText string,
	evidence domain.EvidenceTable,
	cfg Config,
) domain.VerificationResult {
	if len(evidence.Variants) == 0 {
		return domain.VerificationResult{Verified: true, Issues: []domain.VerificationIssue{}}
	}

	validStrings, validValues := collectValidNumbers(evidence)

	ungrounded := make([]string, 0)
	for _, token := range numberTokenPattern.FindAllString(responseText, -1) {
		value, err := parseLocaleNumber(token)
		if err != nil {
			continue
		}
		if skipToken(token, value, cfg) {
			continue
		}
		if isGrounded(token, value, validStrings, validValues, cfg) {
			continue
		}
		ungrounded = append(ungrounded, token)
	}

	if len(ungrounded) > cfg.MaxUngrounded {
		sample := ungrounded
		if len(sample) > sampleOffenders {
			sample = sample[:sampleOffenders]
		}
		return domain.VerificationResult{
			Verified: false,
			Issues: []domain.VerificationIssue{{
				Code: IssueUngroundedNumbers,
				Message: fmt.Sprintf(
					"%d números sem correspondência na tabela de evidências: %s",
					len(ungrounded),
					strings.Join(sample, ", "),
				),
			}},
			UngroundedCount: len(ungrounded),
		}
	}

	return domain.VerificationResult{
		Verified:        true,
		Issues:          []domain.VerificationIssue{},
		UngroundedCount: len(ungrounded),
	}
}

// collectValidNumbers flattens every variant's values and canonical
// spellings, in both locale decimal forms.
func collectValidNumbers(evidence domain.EvidenceTable) (map[string]struct{}, []float64) {
	validSet := make(map[string]struct{})
	values := make([]float64, 0)

	add := func(raw string) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return
		}
		validSet[raw] = struct{}{}
		validSet[swapDecimalSeparator(raw)] = struct{}{}
	}

	for _, variant := range evidence.Variants {
		for _, cell := range variant.Metrics {
			values = append(values, cell.Value)
			add(formatNumber(cell.Value))
			if cell.Canonical != "" {
				add(cell.Canonical)
				if parsed, err := parseLocaleNumber(cell.Canonical); err == nil {
					values = append(values, parsed)
				}
			}
		}
	}
	return validSet, values
}

// skipToken drops tokens that are not measurement claims: small integer
// counts and 4-digit years.
func skipToken(token string, value float64, cfg Config) bool {
	isInteger := !strings.ContainsAny(token, ".,")
	if isInteger && value <= cfg.SmallIntegerMax {
		return true
	}
	if isInteger && len(token) == 4 && value > 1900 && value < 2100 {
		return true
	}
	return false
}

func isGrounded(
	token string,
	value float64,
	validStrings map[string]struct{},
	validValues []float64,
	cfg Config,
) bool {
	if _, ok := validStrings[token]; ok {
		return true
	}
	for _, valid := range validValues {
		if math.Abs(value-valid) <= cfg.MatchTolerance {
			return true
		}
	}
	return false
}

func formatNumber(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func swapDecimalSeparator(raw string) string {
	if strings.Contains(raw, ",") {
		return strings.ReplaceAll(raw, ",", ".")
	}
	return strings.ReplaceAll(raw, ".", ",")
}
