package plan

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/szaher/pomsmith/internal/result"
)

// FormatText produces a human-readable text plan output.
func FormatText(p *Plan) string {
	var changes, noops, skips, errs int
	for _, a := range p.Actions {
		switch a.Type {
		case ActionChange:
			changes++
		case ActionNoop:
			noops++
		case ActionSkip:
			skips++
		case ActionError:
			errs++
		}
	}

	if changes == 0 && errs == 0 {
		return "No changes. POM files are up-to-date.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Plan: %d to change, %d unchanged, %d skipped, %d errors\n\n",
		changes, noops, skips, errs))

	for _, a := range p.Actions {
		switch a.Type {
		case ActionChange:
			sb.WriteString(fmt.Sprintf("  ~ %s\n", a.Path))
			for _, o := range a.Outcomes {
				if o.Status == result.StatusSuccess {
					sb.WriteString(fmt.Sprintf("      %s\n", o.Details))
				}
			}
		case ActionError:
			sb.WriteString(fmt.Sprintf("  ! %s: %s\n", a.Path, a.Reason))
		}
	}

	return sb.String()
}

// FormatJSON produces a JSON plan output.
func FormatJSON(p *Plan) (string, error) {
	type jsonOutcome struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	type jsonAction struct {
		Path     string        `json:"path"`
		Action   string        `json:"action"`
		Reason   string        `json:"reason,omitempty"`
		Outcomes []jsonOutcome `json:"outcomes,omitempty"`
	}
	type jsonPlan struct {
		HasChanges bool         `json:"has_changes"`
		HasErrors  bool         `json:"has_errors"`
		Actions    []jsonAction `json:"actions"`
	}

	jp := jsonPlan{
		HasChanges: p.HasChanges,
		HasErrors:  p.HasErrors,
	}
	for _, a := range p.Actions {
		ja := jsonAction{
			Path:   a.Path,
			Action: string(a.Type),
			Reason: a.Reason,
		}
		for _, o := range a.Outcomes {
			ja.Outcomes = append(ja.Outcomes, jsonOutcome{
				Status:  string(o.Status),
				Message: o.Message(),
			})
		}
		jp.Actions = append(jp.Actions, ja)
	}

	data, err := json.MarshalIndent(jp, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}
