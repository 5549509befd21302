package domain

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Severity classifies one validation finding.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Finding is one validation result.
type Finding struct {
	Severity Severity
	Message  string
}

// ValidationReport collects every finding from Validate, bucketed by
// severity (warnings, errors, and criticals; criticals
// abort startup").
type ValidationReport struct {
	Warnings  []Finding
	Errors    []Finding
	Criticals []Finding
}

func (r *ValidationReport) add(sev Severity, format string, args ...interface{}) {
	f := Finding{Severity: sev, Message: fmt.Sprintf(format, args...)}
	switch sev {
	case SeverityCritical:
		r.Criticals = append(r.Criticals, f)
	case SeverityError:
		r.Errors = append(r.Errors, f)
	default:
		r.Warnings = append(r.Warnings, f)
	}
}

// HasCriticals reports whether startup must abort.
func (r *ValidationReport) HasCriticals() bool { return len(r.Criticals) > 0 }

// Error renders the report as a single joined error message, satisfying
// the error interface so a critical report can be wrapped with %w.
func (r *ValidationReport) Error() string {
	var lines []string
	for _, f := range r.Criticals {
		lines = append(lines, "critical: "+f.Message)
	}
	for _, f := range r.Errors {
		lines = append(lines, "error: "+f.Message)
	}
	return strings.Join(lines, "; ")
}

var structValidator = validator.New()

// Validate runs both struct-tag validation (go-playground/validator/v10,
// covering per-field range/required/oneof constraints declared in
// config.go) and hand-written cross-reference checks across the loaded
// domain.
func Validate(cfg *MasterDomainConfig) *ValidationReport {
	report := &ValidationReport{}

	validateStructTags(report, cfg)

	if len(cfg.Slots) == 0 {
		report.add(SeverityCritical, "no slots defined")
	}
	if len(cfg.Goals) == 0 {
		report.add(SeverityCritical, "no goals defined")
	}
	if len(cfg.Stages) == 0 {
		report.add(SeverityCritical, "no stages defined")
	}

	for id, s := range cfg.Slots {
		if s.Type == SlotTypeEnum && len(s.EnumValues) == 0 {
			report.add(SeverityError, "slot %q is type enum but has no enum_values", id)
		}
		if s.Type == SlotTypeNumber && s.Min != nil && s.Max != nil && *s.Min > *s.Max {
			report.add(SeverityError, "slot %q has min %.2f greater than max %.2f", id, *s.Min, *s.Max)
		}
	}

	for id, st := range cfg.Stages {
		for _, target := range st.ValidTransitions {
			if _, ok := cfg.Stages[target]; !ok {
				report.add(SeverityError, "stage %q transitions to unknown stage %q", id, target)
			}
		}
	}

	for id, c := range cfg.Competitors {
		for i, tier := range c.RateTiers {
			if tier.MinAmount > tier.MaxAmount {
				report.add(SeverityError, "competitor %q rate tier %d has min_amount %.2f greater than max_amount %.2f", id, i, tier.MinAmount, tier.MaxAmount)
			}
		}
		for i := 1; i < len(c.RateTiers); i++ {
			if c.RateTiers[i].MinAmount < c.RateTiers[i-1].MaxAmount {
				report.add(SeverityWarning, "competitor %q rate tiers %d and %d overlap", id, i-1, i)
			}
		}
	}

	t := cfg.Scoring.Thresholds
	if !(t.Cold < t.Warm && t.Warm < t.Hot && t.Hot < t.Qualified) {
		report.add(SeverityCritical, "qualification thresholds must be strictly increasing (cold < warm < hot < qualified), got cold=%.2f warm=%.2f hot=%.2f qualified=%.2f", t.Cold, t.Warm, t.Hot, t.Qualified)
	}

	for id, g := range cfg.Goals {
		for _, slotID := range g.RequiredSlots {
			if _, ok := cfg.Slots[slotID]; !ok {
				report.add(SeverityError, "goal %q references unknown slot %q", id, slotID)
			}
		}
	}

	for _, m := range cfg.Tools.Mappings {
		found := false
		for _, tool := range cfg.Tools.Tools {
			if tool.Name == m.Tool {
				found = true
				break
			}
		}
		if !found {
			report.add(SeverityError, "intent %q maps to unknown tool %q", m.Intent, m.Tool)
		}
	}

	return report
}

func validateStructTags(report *ValidationReport, cfg *MasterDomainConfig) {
	check := func(kind, id string, v interface{}) {
		if err := structValidator.Struct(v); err != nil {
			report.add(SeverityError, "%s %q failed validation: %v", kind, id, err)
		}
	}
	for id, s := range cfg.Slots {
		check("slot", id, s)
	}
	for id, g := range cfg.Goals {
		check("goal", id, g)
	}
	for id, st := range cfg.Stages {
		check("stage", id, st)
	}
	for id, c := range cfg.Competitors {
		check("competitor", id, c)
		for i, tier := range c.RateTiers {
			if err := structValidator.Struct(tier); err != nil {
				report.add(SeverityError, "competitor %q rate tier %d failed validation: %v", id, i, err)
			}
		}
	}
	for id, o := range cfg.Objections {
		check("objection", id, o)
	}
	for _, tool := range cfg.Tools.Tools {
		check("tool", tool.Name, tool)
	}
}
