package scratchpad

import (
	"fmt"
	"strings"
)

// Render formats the payload as markdown for terminal display.
func (p Payload) Render() string {
	var b strings.Builder

	title := p.Title
	if title == "" {
		title = p.SessionID
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "**Status:** %s | **Cycle:** %d | **Open tensions:** %d\n\n",
		p.Status, p.Cycle, p.OpenTensions)
	fmt.Fprintf(&b, "Loaded %d of %d budgeted tokens.\n", p.UsedTokens, p.CapTokens)

	if len(p.Head) > 0 {
		b.WriteString("\n## Current Understanding\n\n")
		for _, text := range p.Head {
			b.WriteString(text)
			b.WriteString("\n")
		}
	}

	if len(p.KeyEvidence) > 0 {
		b.WriteString("\n## Key Evidence\n\n")
		for _, text := range p.KeyEvidence {
			fmt.Fprintf(&b, "- %s\n", text)
		}
	}

	if len(p.Recent) > 0 {
		b.WriteString("\n## Recent\n\n")
		for _, text := range p.Recent {
			fmt.Fprintf(&b, "- %s\n", text)
		}
	}
	if p.RecentOmitted > 0 {
		fmt.Fprintf(&b, "\n(%d recent fragments omitted for budget)\n", p.RecentOmitted)
	}

	if len(p.Historical) > 0 {
		b.WriteString("\n## Historical\n\n")
		for _, text := range p.Historical {
			fmt.Fprintf(&b, "- %s\n", text)
		}
	}
	if p.OlderCount > 0 {
		fmt.Fprintf(&b, "\n(%d older fragments available on demand)\n", p.OlderCount)
	}

	if p.Thesis != nil {
		fmt.Fprintf(&b, "\n## Thesis (confidence %.2f)\n\n%s\n", p.Thesis.Confidence, p.Thesis.Content)
		if len(p.ConfidenceHistory) > 1 {
			trajectory := make([]string, len(p.ConfidenceHistory))
			for i, c := range p.ConfidenceHistory {
				trajectory[i] = fmt.Sprintf("%.2f", c)
			}
			fmt.Fprintf(&b, "\nConfidence trajectory: %s\n", strings.Join(trajectory, " -> "))
		}
	}

	return b.String()
}
