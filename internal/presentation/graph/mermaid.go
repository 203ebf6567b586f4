package graph

import (
	"fmt"
	"strings"

	"github.com/claimdesk/intake/pkg/domain"
)

// Overlay marks runtime progress on the flowchart.
type Overlay struct {
	Completed []string // step ids
	Current   string
	Invalid   []string
}

// OverlayFromCheckpoint derives an overlay from a saved checkpoint.
func OverlayFromCheckpoint(cp *domain.Checkpoint, steps []domain.StepDescriptor) *Overlay {
	o := &Overlay{}
	for i, s := range steps {
		st, ok := cp.PerStepStatus[s.ID]
		switch {
		case i == cp.CurrentStepIndex:
			o.Current = s.ID
		case ok && st.Completed:
			o.Completed = append(o.Completed, s.ID)
		case ok && len(st.Errors) > 0 && s.Required:
			o.Invalid = append(o.Invalid, s.ID)
		}
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of a wizard variant.
// It applies semantic styling:
// - Required step: [Rectangle]
// - Optional step: (Rounded)
// - Review step: [[Subroutine]]
// Next moves are solid arrows; the submit edge ends in a Completed circle.
func GenerateMermaid(steps []domain.StepDescriptor, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for i, s := range steps {
		id := sanitizeMermaidID(s.ID)

		opener, closer := "[", "]"
		switch {
		case s.ID == domain.StepReview:
			opener, closer = "[[", "]]"
		case !s.Required:
			opener, closer = "(", ")"
		}
		title := strings.ReplaceAll(s.Title, "\"", "'")
		fmt.Fprintf(&sb, "    %s%s\"%d. %s\"%s\n", id, opener, i+1, title, closer)

		if i+1 < len(steps) {
			fmt.Fprintf(&sb, "    %s --> %s\n", id, sanitizeMermaidID(steps[i+1].ID))
		} else {
			fmt.Fprintf(&sb, "    %s -- \"submit\" --> completed((\"completed\"))\n", id)
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast regardless of theme
		sb.WriteString("    classDef done fill:#dcfce7,stroke:#166534,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef invalid fill:#fee2e2,stroke:#991b1b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		for _, id := range overlay.Completed {
			fmt.Fprintf(&sb, "    class %s done;\n", sanitizeMermaidID(id))
		}
		for _, id := range overlay.Invalid {
			fmt.Fprintf(&sb, "    class %s invalid;\n", sanitizeMermaidID(id))
		}
		if overlay.Current != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.Current))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
