package mia

// Phase is the externally visible state of the conversation machine.
type Phase string

const (
	PhaseWelcome          Phase = "welcome"
	PhaseFactReveal       Phase = "fact_reveal"
	PhaseChoicePending    Phase = "choice_pending"
	PhaseLinkPending      Phase = "link_pending"
	PhaseStreamingInsight Phase = "streaming_insight"
	PhaseCombinedInsight  Phase = "combined_insight"
	PhaseComplete         Phase = "complete"
	PhaseSkipped          Phase = "skipped"
)

// Terminal reports whether the conversation has ended.
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseSkipped
}
