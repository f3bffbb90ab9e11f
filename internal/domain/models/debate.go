package models

// ModelOrigin identifies which backend produced a perspective.
type ModelOrigin string

const (
	ModelA ModelOrigin = "modelA"
	ModelB ModelOrigin = "modelB"
)

// DebatePerspective is one backend's answer to the fan-out prompt.
type DebatePerspective struct {
	Origin    ModelOrigin `json:"origin"`
	Backend   string      `json:"backend"`
	Text      string      `json:"text,omitempty"`
	Succeeded bool        `json:"succeeded"`
	Error     string      `json:"error,omitempty"`
}

// DebateMode records how the final answer was produced.
type DebateMode string

const (
	// Both perspectives merged by the primary model.
	DebateModeSynthesized DebateMode = "synthesized"
	// One perspective survived and was polished.
	DebateModeSingleSource DebateMode = "single_source"
	// Synthesis or polish failed; a raw perspective is returned verbatim.
	DebateModeUnsynthesized DebateMode = "unsynthesized"
)

// DebateOutcome is the orchestrator's final answer plus provenance.
type DebateOutcome struct {
	Answer       string              `json:"answer"`
	Mode         DebateMode          `json:"mode"`
	Degraded     bool                `json:"degraded"`
	SourcesUsed  []string            `json:"sourcesUsed"`
	Perspectives []DebatePerspective `json:"perspectives"`
	Refined      bool                `json:"refined,omitempty"`
}
