package grounding

import (
	"math"
	"testing"
)

func TestDetectTabularIntentFillerReductionQuery(t *testing.T) {
	query := "reduziu de aprox. 60% para 40% a quantidade de carga na Vitality, o que isso demonstrou?"
	intent := DetectTabularIntent(query, DefaultConfig())

	if !intent.IsExcelTableQuery {
		t.Fatalf("expected tabular intent to fire")
	}
	if intent.TargetFeature != FillerFeature {
		t.Errorf("target feature = %q, want %q", intent.TargetFeature, FillerFeature)
	}

	foundSixty := false
	foundForty := false
	for _, target := range intent.NumericTargets {
		if target.Value == 60 && target.Tolerance == 3 {
			foundSixty = true
		}
		if target.Value == 40 && target.Tolerance == 3 {
			foundForty = true
		}
	}
	if !foundSixty || !foundForty {
		t.Errorf("numeric targets = %+v, want 60 and 40 with tolerance 3", intent.NumericTargets)
	}

	foundVitality := false
	for _, material := range intent.TargetMaterials {
		if material == "vitality" {
			foundVitality = true
		}
	}
	if !foundVitality {
		t.Errorf("target materials = %v, want vitality included", intent.TargetMaterials)
	}
}

func TestDetectTabularIntentConceptQueryDoesNotFire(t *testing.T) {
	query := "O que causa o amarelamento de resinas compostas ao longo do tempo?"
	intent := DetectTabularIntent(query, DefaultConfig())

	if intent.IsExcelTableQuery {
		t.Fatalf("expected conceptual query not to fire, got %+v", intent)
	}
}

func TestDetectTabularIntentExperimentWithTwoNumbersAlwaysFires(t *testing.T) {
	// No filler or table keyword needed when "experimento" shows up with
	// two numbers.
	query := "no experimento obtivemos 85% e depois 15%"
	intent := DetectTabularIntent(query, Config{
		MatchTolerance:  0.5,
		MaxUngrounded:   2,
		SmallIntegerMax: 10,
	})
	if !intent.IsExcelTableQuery {
		t.Fatalf("expected experiment rule to fire")
	}
}

func TestDetectTabularIntentSingleNumberWithChangeVerb(t *testing.T) {
	query := "a tabela mostra que a dureza caiu para 55%"
	intent := DetectTabularIntent(query, DefaultConfig())
	if !intent.IsExcelTableQuery {
		t.Fatalf("expected change verb plus table keyword to fire")
	}
}

func TestDetectTabularIntentFractionScaleTolerance(t *testing.T) {
	query := "na planilha a sorção foi de 1,2% para 2,5%"
	intent := DetectTabularIntent(query, DefaultConfig())

	if !intent.IsExcelTableQuery {
		t.Fatalf("expected tabular intent to fire")
	}
	for _, target := range intent.NumericTargets {
		if target.Value > 10 {
			continue
		}
		if math.Abs(target.Tolerance-0.05) > 1e-9 {
			t.Errorf("tolerance for %v = %v, want 0.05", target.Value, target.Tolerance)
		}
	}
}

func TestExtractNumericMentionsDeduplicates(t *testing.T) {
	values := extractNumericMentions("de 60% para 40%, ou seja, 60% a menos de carga que 40%")
	if len(values) != 2 {
		t.Fatalf("values = %v, want deduplicated {40, 60}", values)
	}
}
