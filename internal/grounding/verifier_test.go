package grounding

import (
	"strings"
	"testing"

	"github.com/labforge/estudo-insights-back/internal/domain"
)

func evidenceTwoVariants() domain.EvidenceTable {
	return domain.EvidenceTable{
		Variants: []domain.EvidenceVariant{
			{
				Label: "60% carga",
				Metrics: map[string]domain.EvidenceValue{
					"filler":   {Value: 60},
					"flexural": {Value: 131.5, Canonical: "131,5"},
				},
			},
			{
				Label: "40% carga",
				Metrics: map[string]domain.EvidenceValue{
					"filler":   {Value: 40},
					"flexural": {Value: 98.2, Canonical: "98,2"},
				},
			},
		},
	}
}

func TestVerifyTabularResponseGroundedNumbersPass(t *testing.T) {
	response := "A resistência flexural foi de 131.5 MPa com 60% de carga e 98.2 MPa com 40%."
	result := VerifyTabularResponse(response, evidenceTwoVariants(), DefaultConfig())

	if !result.Verified {
		t.Fatalf("expected verified response, issues: %+v", result.Issues)
	}
	if len(result.Issues) != 0 {
		t.Fatalf("expected no issues, got %+v", result.Issues)
	}
}

func TestVerifyTabularResponseInventedNumbersFail(t *testing.T) {
	response := "Com 60% de carga: 131.5 MPa, dureza 55.3 HV, módulo 12.4 GPa e sorção 28.7 µg."
	result := VerifyTabularResponse(response, evidenceTwoVariants(), DefaultConfig())

	if result.Verified {
		t.Fatalf("expected verification failure for 3 invented numbers")
	}
	if len(result.Issues) != 1 {
		t.Fatalf("expected one issue, got %+v", result.Issues)
	}
	issue := result.Issues[0]
	if issue.Code != IssueUngroundedNumbers {
		t.Errorf("issue code = %q, want %q", issue.Code, IssueUngroundedNumbers)
	}
	if !strings.Contains(issue.Message, "3") {
		t.Errorf("issue message should carry the offender count: %q", issue.Message)
	}
	for _, offender := range []string{"55.3", "12.4", "28.7"} {
		if !strings.Contains(issue.Message, offender) {
			t.Errorf("issue message should sample offender %s: %q", offender, issue.Message)
		}
	}
}

func TestVerifyTabularResponseNoEvidenceIsTriviallyVerified(t *testing.T) {
	result := VerifyTabularResponse("qualquer valor 999.9", domain.EvidenceTable{}, DefaultConfig())
	if !result.Verified {
		t.Fatalf("expected trivially verified response with empty evidence")
	}
}

func TestVerifyTabularResponseToleratesBoundedMisses(t *testing.T) {
	// Two derived numbers (a percentage difference and a rounded delta)
	// stay within the allowance of 2.
	response := "Queda de 25.3% na resistência: 131.5 para 98.2, diferença de 33.3 MPa."
	result := VerifyTabularResponse(response, evidenceTwoVariants(), DefaultConfig())
	if !result.Verified {
		t.Fatalf("expected 2 ungrounded derived numbers to be tolerated, issues: %+v", result.Issues)
	}
}

func TestVerifyTabularResponseCommaSpellingIsGrounded(t *testing.T) {
	response := "A resistência flexural média foi 131,5 MPa."
	result := VerifyTabularResponse(response, evidenceTwoVariants(), DefaultConfig())
	if !result.Verified {
		t.Fatalf("expected comma spelling to match canonical value, issues: %+v", result.Issues)
	}
}

func TestVerifyTabularResponseSkipsCountsAndYears(t *testing.T) {
	response := "Em 2024 foram 3 ensaios e 2 grupos, todos com 131.5 MPa."
	result := VerifyTabularResponse(response, evidenceTwoVariants(), DefaultConfig())
	if !result.Verified {
		t.Fatalf("expected counts and years to be skipped, issues: %+v", result.Issues)
	}
}

func TestVerifyTabularResponseRoundingWithinToleranceIsGrounded(t *testing.T) {
	response := "Aproximadamente 131 MPa no grupo com mais carga e 98 MPa no outro."
	result := VerifyTabularResponse(response, evidenceTwoVariants(), DefaultConfig())
	if !result.Verified {
		t.Fatalf("expected 131 and 98 to ground within 0.5 of table values, issues: %+v", result.Issues)
	}
}

func TestVerifyTabularResponseZeroToleranceConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxUngrounded = 0

	response := "Queda de 25.3% na resistência flexural."
	result := VerifyTabularResponse(response, evidenceTwoVariants(), cfg)
	if result.Verified {
		t.Fatalf("expected strict config to reject a single derived number")
	}
}
