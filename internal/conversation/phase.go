package conversation

// Phase is a node in the screening conversation's state machine. The
// progression is linear, with exit intent jumping any active phase to
// PhaseEnded.
type Phase int

const (
	PhaseGreeting Phase = iota
	PhaseGatheringInfo
	PhaseTechQuestions
	PhaseAnsweringQuestions
	PhaseClosing
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseGreeting:
		return "greeting"
	case PhaseGatheringInfo:
		return "gathering_info"
	case PhaseTechQuestions:
		return "tech_questions"
	case PhaseAnsweringQuestions:
		return "answering_questions"
	case PhaseClosing:
		return "closing"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}
