package tui

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/claimdesk/intake/pkg/domain"
	"github.com/muesli/termenv"
)

// CheckpointMarkdown summarizes a saved checkpoint: progress, per-step status and the draft.
func CheckpointMarkdown(cp *domain.Checkpoint, steps []domain.StepDescriptor) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Claim intake: %s\n\n", cp.Key.Variant)
	fmt.Fprintf(&sb, "- **Organization:** %s\n", cp.Key.OrganizationID)
	fmt.Fprintf(&sb, "- **User:** %s\n", cp.Key.UserID)
	fmt.Fprintf(&sb, "- **Session:** `%s`\n", cp.SessionID)
	fmt.Fprintf(&sb, "- **Progress:** %d%% (step %d of %d)\n", cp.ProgressPercent, cp.CurrentStepIndex+1, cp.TotalSteps)
	fmt.Fprintf(&sb, "- **Saved:** %s\n", cp.SavedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	if !cp.ExpiresAt.IsZero() {
		fmt.Fprintf(&sb, "- **Expires:** %s\n", cp.ExpiresAt.UTC().Format("2006-01-02 15:04:05 MST"))
	}

	sb.WriteString("\n## Steps\n\n")
	sb.WriteString("| # | Step | Required | Status |\n| --- | --- | --- | --- |\n")
	for i, s := range steps {
		st := cp.PerStepStatus[s.ID]
		mark := "pending"
		switch {
		case i == cp.CurrentStepIndex:
			mark = "**current**"
		case st.Completed:
			mark = "done"
		case len(st.Errors) > 0:
			mark = strings.Join(st.Errors, "; ")
		}
		fmt.Fprintf(&sb, "| %d | %s | %s | %s |\n", i+1, s.Title, yesNo(s.Required), mark)
	}

	sb.WriteString("\n## Draft\n\n")
	sb.WriteString(draftMarkdown(cp.Draft))
	return sb.String()
}

// ValidationMarkdown lists the results of validating a draft against every step.
func ValidationMarkdown(variant string, steps []domain.StepDescriptor, results []domain.ValidationResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Validation: %s\n\n", variant)
	byID := make(map[string]domain.ValidationResult, len(results))
	for _, r := range results {
		byID[r.StepID] = r
	}
	for _, s := range steps {
		r := byID[s.ID]
		icon := "✅"
		if !r.IsValid {
			icon = "❌"
		} else if len(r.Errors) > 0 {
			icon = "⚠️"
		}
		req := ""
		if s.Required {
			req = " *(required)*"
		}
		fmt.Fprintf(&sb, "- %s **%s**%s\n", icon, s.Title, req)
		for _, e := range r.Errors {
			fmt.Fprintf(&sb, "  - %s\n", e)
		}
	}
	return sb.String()
}

// StepsMarkdown renders a variant as a numbered list.
func StepsMarkdown(variant string, steps []domain.StepDescriptor) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", variant)
	for i, s := range steps {
		req := ""
		if s.Required {
			req = " *(required)*"
		}
		fmt.Fprintf(&sb, "%d. **%s** `%s`%s", i+1, s.Title, s.ID, req)
		if s.Description != "" {
			fmt.Fprintf(&sb, ": %s", s.Description)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func draftMarkdown(d domain.ClaimDraft) string {
	if len(d) == 0 {
		return "_empty_\n"
	}
	names := make([]string, 0, len(d))
	for k := range d {
		names = append(names, k)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		data, err := json.MarshalIndent(d[name], "", "  ")
		if err != nil {
			data = []byte(fmt.Sprint(d[name]))
		}
		fmt.Fprintf(&sb, "### %s\n\n```json\n%s\n```\n\n", name, data)
	}
	return sb.String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// Status colors a one-line verdict for w: green when ok, red otherwise.
// Colors are dropped automatically when w is not a terminal.
func Status(w io.Writer, ok bool, text string) string {
	out := termenv.NewOutput(w)
	color := "#ef4444"
	if ok {
		color = "#22c55e"
	}
	return out.String(text).Foreground(out.Color(color)).Bold().String()
}
