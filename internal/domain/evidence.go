package domain

// EvidenceValue is one cell of an evidence table. Canonical carries the
// value as originally written in the source spreadsheet when it differs
// from the parsed form (locale decimal comma, trailing units).
type EvidenceValue struct {
	Value     float64 `json:"value"`
	Canonical string  `json:"value_canonical,omitempty"`
}

// EvidenceVariant maps metric names to values for one material variant
// (typically one experiment).
type EvidenceVariant struct {
	Label   string                   `json:"label,omitempty"`
	Metrics map[string]EvidenceValue `json:"metrics"`
}

// EvidenceTable is the ground truth a generated answer is checked against.
type EvidenceTable struct {
	Variants []EvidenceVariant `json:"variants"`
}

// NumericTarget is a number mentioned in a query plus the tolerance used
// when matching it against table values.
type NumericTarget struct {
	Value     float64 `json:"value"`
	Tolerance float64 `json:"tolerance"`
}

// TabularIntent is the classification of a query as asking about structured
// experiment/spreadsheet data. Produced fresh per query, never persisted.
type TabularIntent struct {
	IsExcelTableQuery bool            `json:"is_excel_table_query"`
	TargetMaterials   []string        `json:"target_materials,omitempty"`
	TargetFeature     string          `json:"target_feature,omitempty"`
	NumericTargets    []NumericTarget `json:"numeric_targets,omitempty"`
}

// VerificationIssue describes one grounding problem found in a response.
type VerificationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// VerificationResult is the outcome of a numeric-grounding check. A failed
// check is a result, not an error; callers branch on Verified.
type VerificationResult struct {
	Verified bool                `json:"verified"`
	Issues   []VerificationIssue `json:"issues"`
	// UngroundedCount is how many numbers failed to ground, also reported
	// when the check still passes within the allowance.
	UngroundedCount int `json:"ungrounded_count"`
}
