// Package template renders the text parameters of workflow actions.
package template

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/dukex/pressdesk/pkg/models"
)

// Render executes templateStr against data. Strings without template delimiters are returned as is.
func Render(templateStr string, data any) (string, error) {
	if !strings.Contains(templateStr, "{{") {
		return templateStr, nil
	}

	tmpl, err := template.
		New("action").
		Option("missingkey=zero").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
			"percent": func(v any) string {
				switch n := v.(type) {
				case float64:
					return fmt.Sprintf("%.0f%%", n*100)
				case *float64:
					if n == nil {
						return "n/a"
					}

					return fmt.Sprintf("%.0f%%", *n*100)
				default:
					return "n/a"
				}
			},
			"upper": strings.ToUpper,
		}).Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	// Missing keys of map data print as "<no value>" even with missingkey=zero.
	return strings.TrimSpace(strings.ReplaceAll(buf.String(), "<no value>", "")), nil
}

// ActionData is the data exposed to action templates as .rule and .suggestion.
func ActionData(rule *models.WorkflowRule, suggestion *models.AISuggestion) map[string]any {
	data := map[string]any{}

	if rule != nil {
		data["rule"] = map[string]any{
			"id":       rule.ID,
			"name":     rule.Name,
			"priority": rule.Priority,
		}
	}

	if suggestion != nil {
		s := map[string]any{
			"id":          suggestion.ID,
			"agent_id":    suggestion.AgentID,
			"target_type": string(suggestion.TargetType),
			"status":      string(suggestion.Status),
			"reasoning":   suggestion.Reasoning,
			"confidence":  suggestion.ConfidenceScore,
			"target_id":   "",
		}

		if suggestion.TargetID != nil {
			s["target_id"] = *suggestion.TargetID
		}

		if suggestion.Priority != nil {
			s["priority"] = *suggestion.Priority
		}

		data["suggestion"] = s
	}

	return data
}
