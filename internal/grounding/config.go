// Package grounding classifies queries that ask about tabular experiment
// data and checks that generated answers only cite numbers present in the
// evidence they were generated from. Both sides are deliberately simple
// heuristics: keyword lists, regexes and fixed tolerances, all carried in
// Config so they can be tuned without touching control flow.
package grounding

// Config holds the tunable lists and thresholds for intent detection and
// numeric grounding.
type Config struct {
	// FillerKeywords flag material-loading vocabulary; any hit also sets
	// the target feature to FillerFeature.
	FillerKeywords []string
	// TableKeywords flag spreadsheet/experiment vocabulary.
	TableKeywords []string
	// ChangeVerbs imply a before/after comparison.
	ChangeVerbs []string
	// KnownMaterials are commercial material-name substrings collected
	// into TargetMaterials on match.
	KnownMaterials []string

	// MatchTolerance is the absolute distance within which a response
	// number counts as a rounding of an evidence value.
	MatchTolerance float64
	// MaxUngrounded is how many ungrounded numbers a response may carry
	// before verification fails. Derived mentions (percentage differences,
	// rounding) are legitimate, so zero is intentionally not the default.
	MaxUngrounded int
	// SmallIntegerMax bounds bare integers treated as counts, not
	// measurement claims.
	SmallIntegerMax float64
}

// FillerFeature is the target-feature tag set when filler vocabulary fires.
const FillerFeature = "filler_content"

// IssueUngroundedNumbers is the issue code for a failed grounding check.
const IssueUngroundedNumbers = "NUMERIC_GROUNDING_FAILED_TABULAR"

func DefaultConfig() Config {
	return Config{
		FillerKeywords: []string{
			"carga",
			"percentual de carga",
			"quantidade de carga",
			"fração de carga",
			"filler",
			"conteúdo inorgânico",
			"partículas de carga",
		},
		TableKeywords: []string{
			"tabela",
			"planilha",
			"excel",
			"experimento",
			"experimentos",
			"medições",
			"medicoes",
			"ensaio",
			"ensaios",
			"amostra",
			"amostras",
			"resultados",
			"dados",
		},
		ChangeVerbs: []string{
			"reduziu",
			"reduzir",
			"aumentou",
			"aumentar",
			"diminuiu",
			"diminuir",
			"variou",
			"alterou",
			"mudou",
			"caiu",
			"subiu",
		},
		KnownMaterials: []string{
			"vitality",
			"filtek",
			"z350",
			"z250",
			"charisma",
			"opallis",
			"tetric",
			"empress",
			"venus",
		},
		MatchTolerance:  0.5,
		MaxUngrounded:   2,
		SmallIntegerMax: 10,
	}
}
