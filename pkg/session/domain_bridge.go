package session

import (
	"fmt"
	"strings"

	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/domain"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/dst"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/llm"
	"github.com/ayushmaanbhav/vaak-voice-enabled-ai-agent-sub003/pkg/stage"
)

// BuildGoalSchema translates a loaded domain configuration's goals into a
// dst.Schema, resolving each goal's completion tool from the
// domain's intent->tool mapping when its next_action is call_tool.
func BuildGoalSchema(cfg *domain.MasterDomainConfig) *dst.Schema {
	schema := dst.NewSchema()
	for id, g := range cfg.Goals {
		goal := &dst.Goal{
			ID:            id,
			DisplayName:   id,
			RequiredSlots: g.RequiredSlots,
			SlotPrompts:   make(map[string]string),
		}
		if g.NextAction == "call_tool" {
			if tool, ok := cfg.ToolForIntent(g.Intent); ok {
				goal.CompletionToolID = tool.Name
			}
		}
		for _, slotID := range g.RequiredSlots {
			if slot, ok := cfg.Slot(slotID); ok && slot.Required {
				goal.SlotPrompts[slotID] = fmt.Sprintf("Could you share your %s?", strings.ReplaceAll(slotID, "_", " "))
			}
		}
		schema.Goals[id] = goal
		schema.IntentToGoal[g.Intent] = id
		if schema.DefaultGoalID == "" || len(g.RequiredSlots) == 0 {
			schema.DefaultGoalID = id
		}
	}
	return schema
}

// BuildToolDefinitions translates the domain's tool schemas into the JSON
// schema shape llm.Adapter offers to a model.
func BuildToolDefinitions(cfg *domain.MasterDomainConfig) []llm.ToolDefinition {
	tools := make([]llm.ToolDefinition, 0, len(cfg.Tools.Tools))
	for _, t := range cfg.Tools.Tools {
		props := make(map[string]interface{}, len(t.Parameters))
		var required []string
		for _, p := range t.Parameters {
			props[p.Name] = map[string]interface{}{"type": p.Type, "description": p.Description}
			if p.Required {
				required = append(required, p.Name)
			}
		}
		tools = append(tools, llm.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			Parameters: map[string]interface{}{
				"type":       "object",
				"properties": props,
				"required":   required,
			},
		})
	}
	return tools
}

// BuildSystemPrompt composes the per-turn system prompt from the current
// conversation stage's authoring guidance and the active customer
// segment's persona.
func BuildSystemPrompt(cfg *domain.MasterDomainConfig, current stage.Stage, segmentID string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s, voice agent for %s.\n", personaName(cfg, segmentID), cfg.Meta.DisplayName)

	if seg, ok := cfg.Segment(segmentID); ok {
		if seg.Persona.SystemPrompt != "" {
			sb.WriteString(seg.Persona.SystemPrompt)
			sb.WriteString("\n")
		}
		if seg.Persona.Tone != "" {
			fmt.Fprintf(&sb, "Maintain a %s tone.\n", seg.Persona.Tone)
		}
	}

	if st, ok := cfg.Stage(string(current)); ok {
		fmt.Fprintf(&sb, "Current stage: %s. %s\n", current, st.Guidance)
		if len(st.SuggestedQuestions) > 0 {
			sb.WriteString("Consider asking: " + strings.Join(st.SuggestedQuestions, " / ") + "\n")
		}
	}
	return sb.String()
}

func personaName(cfg *domain.MasterDomainConfig, segmentID string) string {
	if seg, ok := cfg.Segment(segmentID); ok && seg.Persona.Name != "" {
		return seg.Persona.Name
	}
	return "the assistant"
}

// BuildObjectionGuidance renders an ACRE objection response as extra system
// guidance once DetectObjection has matched.
func BuildObjectionGuidance(o domain.ObjectionConfig) string {
	return fmt.Sprintf(
		"The caller raised an objection. Acknowledge: %q. Reframe: %q. Evidence: %q. Then: %q.",
		o.Acknowledge, o.Reframe, o.Evidence, o.CallToAction,
	)
}
