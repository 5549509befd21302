// Package domain implements the domain bridge: a hierarchical YAML
// loader over config/domains/{domain_id}/ producing a MasterDomainConfig,
// plus typed views (slots, goals, stages, segments, features, competitors,
// objections, tool schemas, lead-classifier rules, qualification thresholds)
// and startup validation.
package domain

// SlotType discriminates the kind of value a slot holds.
type SlotType string

const (
	SlotTypeString  SlotType = "string"
	SlotTypeNumber  SlotType = "number"
	SlotTypeEnum    SlotType = "enum"
	SlotTypeBoolean SlotType = "boolean"
)

// SlotConfig is one slot definition loaded from slots.yaml.
type SlotConfig struct {
	ID         string   `yaml:"id" validate:"required"`
	Type       SlotType `yaml:"type" validate:"required,oneof=string number enum boolean"`
	EnumValues []string `yaml:"enum_values,omitempty"`
	Min        *float64 `yaml:"min,omitempty"`
	Max        *float64 `yaml:"max,omitempty"`
	Required   bool     `yaml:"required"`
}

// GoalConfig is one goal definition loaded from goals.yaml.
type GoalConfig struct {
	ID            string   `yaml:"id" validate:"required"`
	Intent        string   `yaml:"intent" validate:"required"`
	RequiredSlots []string `yaml:"required_slots"`
	NextAction    string   `yaml:"next_action"`
}

// StageConfig is one conversation-stage definition loaded from stages.yaml,
// feeding pkg/stage.Config.Transitions plus per-stage authoring guidance.
type StageConfig struct {
	ID                  string   `yaml:"id" validate:"required"`
	Guidance            string   `yaml:"guidance"`
	SuggestedQuestions  []string `yaml:"suggested_questions"`
	ContextBudgetTokens int      `yaml:"context_budget_tokens" validate:"gte=0"`
	RAGContextFraction  float64  `yaml:"rag_context_fraction" validate:"gte=0,lte=1"`
	HistoryTurnsToKeep  int      `yaml:"history_turns_to_keep" validate:"gte=0"`
	ValidTransitions    []string `yaml:"valid_transitions"`
}

// PersonaConfig describes the voice persona embedded in a segment.
type PersonaConfig struct {
	Name         string `yaml:"name"`
	Tone         string `yaml:"tone"`
	SystemPrompt string `yaml:"system_prompt"`
}

// SegmentConfig is one customer-segment definition loaded from entities.yaml
// or segments.yaml, with an embedded persona.
type SegmentConfig struct {
	ID      string        `yaml:"id" validate:"required"`
	Label   string        `yaml:"label"`
	Persona PersonaConfig `yaml:"persona"`
}

// FeatureConfig is one templated feature description from features.yaml.
// Template supports {{name}}-style variable substitution.
type FeatureConfig struct {
	ID       string `yaml:"id" validate:"required"`
	Template string `yaml:"template" validate:"required"`
}

// RateTier is one rate-range entry for a competitor comparison or the
// domain's own pricing (consumed by pkg/calc.Calculator).
type RateTier struct {
	MinAmount float64 `yaml:"min_amount"`
	MaxAmount float64 `yaml:"max_amount" validate:"gtefield=MinAmount"`
	RatePct   float64 `yaml:"rate_pct" validate:"gte=0"`
}

// CompetitorConfig is one competitor comparison entry loaded from
// competitors.yaml.
type CompetitorConfig struct {
	ID             string     `yaml:"id" validate:"required"`
	Name           string     `yaml:"name" validate:"required"`
	RateTiers      []RateTier `yaml:"rate_tiers"`
	QualityFactors map[string]float64 `yaml:"quality_factors"`
	LTVPercent     float64    `yaml:"ltv_percent" validate:"gte=0,lte=100"`
}

// ObjectionConfig is one objection-handling entry loaded from
// objections.yaml: an ACRE (Acknowledge/Reframe/Evidence/Call-to-action)
// response plus per-language detection patterns.
type ObjectionConfig struct {
	ID                string              `yaml:"id" validate:"required"`
	DetectionPatterns map[string][]string `yaml:"detection_patterns"` // language -> patterns
	Acknowledge       string              `yaml:"acknowledge"`
	Reframe           string              `yaml:"reframe"`
	Evidence          string              `yaml:"evidence"`
	CallToAction      string              `yaml:"call_to_action"`
}

// ToolParameter is one JSON-schema-ish parameter entry for a tool schema.
type ToolParameter struct {
	Name        string `yaml:"name" validate:"required"`
	Type        string `yaml:"type" validate:"required"`
	Description string `yaml:"description"`
	Required    bool   `yaml:"required"`
}

// ToolSchemaConfig is one tool definition loaded from tools/schemas.yaml.
type ToolSchemaConfig struct {
	Name           string          `yaml:"name" validate:"required"`
	Description    string          `yaml:"description"`
	Parameters     []ToolParameter `yaml:"parameters"`
	RequiredSlots  []string        `yaml:"required_slots"`
	FallbackToolID string          `yaml:"fallback_tool_id"`
}

// IntentToolMapping maps an intent to the tool that should handle it.
type IntentToolMapping struct {
	Intent string `yaml:"intent" validate:"required"`
	Tool   string `yaml:"tool" validate:"required"`
}

// LeadClassifierRule is one rule contributing to lead classification:
// required boolean flags, any-of flags, and numeric thresholds.
type LeadClassifierRule struct {
	ID                string             `yaml:"id" validate:"required"`
	RequiredFlags     []string           `yaml:"required_flags"`
	AnyOfFlags        []string           `yaml:"any_of_flags"`
	NumericThresholds map[string]float64 `yaml:"numeric_thresholds"`
}

// QualificationThresholds defines the cold/warm/hot/qualified score bands
// for lead scoring (consumed by pkg/calc.ScoreBands).
type QualificationThresholds struct {
	Cold      float64 `yaml:"cold" validate:"gte=0"`
	Warm      float64 `yaml:"warm" validate:"gte=0"`
	Hot       float64 `yaml:"hot" validate:"gte=0"`
	Qualified float64 `yaml:"qualified" validate:"gte=0"`
}

// DomainMeta is the top-level domain.yaml payload.
type DomainMeta struct {
	ID          string `yaml:"id" validate:"required"`
	DisplayName string `yaml:"display_name"`
	Language    string `yaml:"default_language"`
}

// ScoringConfig is the scoring.yaml payload: lead-classifier rules plus the
// qualification thresholds.
type ScoringConfig struct {
	Rules      []LeadClassifierRule    `yaml:"rules"`
	Thresholds QualificationThresholds `yaml:"thresholds"`
}

// ToolsConfig is the tools/schemas.yaml payload.
type ToolsConfig struct {
	Tools    []ToolSchemaConfig  `yaml:"tools"`
	Mappings []IntentToolMapping `yaml:"intent_mappings"`
}

// MasterDomainConfig is the fully loaded, merged configuration for one
// domain, assembled from every YAML file under config/domains/{domain_id}/.
type MasterDomainConfig struct {
	Meta        DomainMeta                  `yaml:"-"`
	Slots       map[string]SlotConfig       `yaml:"-"`
	Goals       map[string]GoalConfig       `yaml:"-"`
	Stages      map[string]StageConfig      `yaml:"-"`
	Segments    map[string]SegmentConfig    `yaml:"-"`
	Features    map[string]FeatureConfig    `yaml:"-"`
	Competitors map[string]CompetitorConfig `yaml:"-"`
	Objections  map[string]ObjectionConfig  `yaml:"-"`
	Tools       ToolsConfig                 `yaml:"-"`
	Scoring     ScoringConfig               `yaml:"-"`
}
