package engine

import (
	"fmt"
	"strings"

	"github.com/hupe1980/councilmesh/core"
)

// thesisPrompt frames the inquiry as a request for an initial, independent
// position. Every participant receives the same prompt during analysis.
func thesisPrompt(inquiry string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Inquiry:\n%s\n\n", inquiry)
	sb.WriteString("Give your initial, independent thesis on this inquiry. ")
	sb.WriteString("Do not assume knowledge of any other participant's position.")

	return sb.String()
}

// debatePrompt assembles the full deliberation context for one turn: the
// transcript of all completed phases plus any arguments already made earlier
// in the current round, so a later speaker always sees the earlier ones.
func debatePrompt(inquiry string, transcript *core.Transcript, current core.Round) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Inquiry:\n%s\n\n", inquiry)
	sb.WriteString("Deliberation so far:\n\n")
	sb.WriteString(transcript.String())

	if len(current.Arguments) > 0 {
		fmt.Fprintf(&sb, "\n## Round %d (in progress)\n", current.Number)
		for _, a := range current.Arguments {
			fmt.Fprintf(&sb, "\n### %s\n\n%s\n", a.Participant, strings.TrimSpace(a.Text))
		}
	}

	fmt.Fprintf(&sb, "\nIt is round %d and your turn to speak. ", current.Number)
	sb.WriteString("Engage with the positions above: defend, refine or revise your own.")

	return sb.String()
}

// consensusPrompt asks the synthesizer to adjudicate the deliberation,
// answering with either the agreed recommendation verbatim or the reserved
// sentinel token.
func consensusPrompt(inquiry string, transcript *core.Transcript, sentinel string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Inquiry:\n%s\n\n", inquiry)
	sb.WriteString("Deliberation so far:\n\n")
	sb.WriteString(transcript.String())

	sb.WriteString("\nInspect the full deliberation above. ")
	sb.WriteString("If all participants now agree on a final recommendation, reply with that recommendation verbatim and nothing else. ")
	fmt.Fprintf(&sb, "If there is no full agreement yet, reply with the single word %s.", sentinel)

	return sb.String()
}

// impassePrompt asks the synthesizer for an impartial closing summary once
// the round budget is exhausted without agreement.
func impassePrompt(inquiry string, transcript *core.Transcript) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Inquiry:\n%s\n\n", inquiry)
	sb.WriteString("Deliberation so far:\n\n")
	sb.WriteString(transcript.String())

	sb.WriteString("\nThe deliberation ended without unanimous agreement. ")
	sb.WriteString("Impartially summarize the final position of each participant, noting where they converge and where they still differ.")

	return sb.String()
}
