package domain

import "time"

// Measurement is a single experimental reading supplied by the entity store.
type Measurement struct {
	ExperimentID string
	Metric       string
	RawName      string
	Value        float64
	Unit         string
	Method       string
	Confidence   string
}

// ExperimentCondition is one key/value pair describing how an experiment ran.
type ExperimentCondition struct {
	ExperimentID string
	Key          string
	Value        string
}

type TrendKind string

const (
	TrendStable         TrendKind = "stable"
	TrendHighDispersion TrendKind = "high_dispersion"
	// Directional kinds exist in stored data but the current engine never
	// assigns them. Kept so persisted items keep decoding.
	TrendPositive TrendKind = "positive"
	TrendNegative TrendKind = "negative"
)

// ConditionCorrelation aggregates a metric's values under one experimental
// condition value.
type ConditionCorrelation struct {
	Key   string  `json:"key"`
	Value string  `json:"value"`
	Avg   float64 `json:"avg"`
	N     int     `json:"n"`
}

// MetricTrend is the intermediate statistical summary for one metric. It is
// never persisted directly; TrendsService turns it into a KnowledgeItem.
type MetricTrend struct {
	Metric       string                 `json:"metric"`
	Unit         string                 `json:"unit"`
	N            int                    `json:"n"`
	Mean         float64                `json:"mean"`
	StdDev       float64                `json:"std_dev"`
	CV           float64                `json:"cv"`
	Kind         TrendKind              `json:"kind"`
	Correlations []ConditionCorrelation `json:"correlations,omitempty"`
	Confidence   float64                `json:"confidence"`
}

// KnowledgeItem is a knowledge-base record. Machine-written trend insights
// carry AutoValidated=true so consumers can tell them from human notes.
type KnowledgeItem struct {
	ID               string     `json:"id"`
	ProjectID        string     `json:"project_id"`
	Category         string     `json:"category"`
	Title            string     `json:"title"`
	Content          string     `json:"content"`
	Evidence         string     `json:"evidence"`
	Confidence       float64    `json:"confidence"`
	AutoValidated    bool       `json:"auto_validated"`
	ValidationReason string     `json:"validation_reason"`
	CreatedAt        time.Time  `json:"created_at"`
	DeletedAt        *time.Time `json:"deleted_at,omitempty"`
}

// KnowledgeCategoryTrend tags insights produced by the statistical engine.
const KnowledgeCategoryTrend = "tendencia_estatistica"

// ValidationReasonStatEngine marks machine provenance on trend insights.
const ValidationReasonStatEngine = "statistical_engine"
