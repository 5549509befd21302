package domain

import "strings"

// Slot returns the slot definition for id.
func (c *MasterDomainConfig) Slot(id string) (SlotConfig, bool) {
	s, ok := c.Slots[id]
	return s, ok
}

// Goal returns the goal definition for id.
func (c *MasterDomainConfig) Goal(id string) (GoalConfig, bool) {
	g, ok := c.Goals[id]
	return g, ok
}

// GoalForIntent finds the goal whose Intent matches, if any.
func (c *MasterDomainConfig) GoalForIntent(intent string) (GoalConfig, bool) {
	for _, g := range c.Goals {
		if g.Intent == intent {
			return g, true
		}
	}
	return GoalConfig{}, false
}

// Stage returns the stage definition for id.
func (c *MasterDomainConfig) Stage(id string) (StageConfig, bool) {
	s, ok := c.Stages[id]
	return s, ok
}

// Segment returns the segment definition for id.
func (c *MasterDomainConfig) Segment(id string) (SegmentConfig, bool) {
	s, ok := c.Segments[id]
	return s, ok
}

// RenderFeature substitutes {{name}}-style variables into the feature's
// template ({{name}} variable substitution).
func (c *MasterDomainConfig) RenderFeature(id string, vars map[string]string) (string, bool) {
	f, ok := c.Features[id]
	if !ok {
		return "", false
	}
	out := f.Template
	for name, value := range vars {
		out = strings.ReplaceAll(out, "{{"+name+"}}", value)
	}
	return out, true
}

// Competitor returns the competitor definition for id.
func (c *MasterDomainConfig) Competitor(id string) (CompetitorConfig, bool) {
	cm, ok := c.Competitors[id]
	return cm, ok
}

// RateForAmount finds the first rate tier in the competitor's table whose
// range contains amount (inclusive upper bound, matching pkg/calc's
// RateForAmount semantics).
func (cc CompetitorConfig) RateForAmount(amount float64) (float64, bool) {
	for _, tier := range cc.RateTiers {
		if amount >= tier.MinAmount && amount <= tier.MaxAmount {
			return tier.RatePct, true
		}
	}
	return 0, false
}

// Objection returns the objection definition for id.
func (c *MasterDomainConfig) Objection(id string) (ObjectionConfig, bool) {
	o, ok := c.Objections[id]
	return o, ok
}

// DetectObjection scans text (in the given language) against every
// objection's detection patterns and returns the first match.
func (c *MasterDomainConfig) DetectObjection(text, language string) (ObjectionConfig, bool) {
	lower := strings.ToLower(text)
	for _, o := range c.Objections {
		patterns := o.DetectionPatterns[language]
		for _, p := range patterns {
			if strings.Contains(lower, strings.ToLower(p)) {
				return o, true
			}
		}
	}
	return ObjectionConfig{}, false
}

// ToolSchema returns the tool schema for name.
func (c *MasterDomainConfig) ToolSchema(name string) (ToolSchemaConfig, bool) {
	for _, t := range c.Tools.Tools {
		if t.Name == name {
			return t, true
		}
	}
	return ToolSchemaConfig{}, false
}

// ToolForIntent resolves the tool mapped to intent, per the
// intent→tool mapping table.
func (c *MasterDomainConfig) ToolForIntent(intent string) (ToolSchemaConfig, bool) {
	for _, m := range c.Tools.Mappings {
		if m.Intent == intent {
			return c.ToolSchema(m.Tool)
		}
	}
	return ToolSchemaConfig{}, false
}

// ResolveTool resolves the tool for intent, applying required-slot gating:
// if the mapped tool's required slots are not all present in filledSlots,
// falls back to its FallbackToolID (required-slot gating with
// fallback tool").
func (c *MasterDomainConfig) ResolveTool(intent string, filledSlots map[string]bool) (ToolSchemaConfig, bool) {
	tool, ok := c.ToolForIntent(intent)
	if !ok {
		return ToolSchemaConfig{}, false
	}
	if toolSlotsSatisfied(tool, filledSlots) {
		return tool, true
	}
	if tool.FallbackToolID == "" {
		return ToolSchemaConfig{}, false
	}
	return c.ToolSchema(tool.FallbackToolID)
}

func toolSlotsSatisfied(tool ToolSchemaConfig, filledSlots map[string]bool) bool {
	for _, slotID := range tool.RequiredSlots {
		if !filledSlots[slotID] {
			return false
		}
	}
	return true
}

// LeadClassifierRules returns the configured lead-classifier rules.
func (c *MasterDomainConfig) LeadClassifierRules() []LeadClassifierRule {
	return c.Scoring.Rules
}

// QualificationThresholds returns the cold/warm/hot/qualified score bands.
func (c *MasterDomainConfig) QualificationThresholds() QualificationThresholds {
	return c.Scoring.Thresholds
}

// MatchesRule reports whether flags/values satisfy rule: all RequiredFlags
// must be true, at least one of AnyOfFlags (if non-empty) must be true, and
// every numeric threshold in rule.NumericThresholds must be met or exceeded
// by the corresponding entry in values.
func (rule LeadClassifierRule) MatchesRule(flags map[string]bool, values map[string]float64) bool {
	for _, f := range rule.RequiredFlags {
		if !flags[f] {
			return false
		}
	}
	if len(rule.AnyOfFlags) > 0 {
		any := false
		for _, f := range rule.AnyOfFlags {
			if flags[f] {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}
	for key, threshold := range rule.NumericThresholds {
		if values[key] < threshold {
			return false
		}
	}
	return true
}
