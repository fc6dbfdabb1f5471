package output

// Status classifies what happened to one mutation.
type Status string

const (
	// StatusApplied means the mutation reached the host scene.
	StatusApplied Status = "APPLIED"
	// StatusSkipped means a target was missing or a value could not be
	// coerced; the mutation was dropped and the run continued.
	StatusSkipped Status = "SKIPPED"
	// StatusPlanned is the dry-run status: described, never executed.
	StatusPlanned Status = "PLANNED"
)

// Mutation is the record of one scene edit (or its dry-run description).
// It is the primary unit of structured output.
type Mutation struct {
	Variation string `json:"variation"`
	Stage     string `json:"stage"`
	Target    string `json:"target,omitempty"`
	Status    Status `json:"status"`
	Detail    string `json:"detail,omitempty"`
}

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line), including:
// - run.started
// - variation.started
// - mutation (one per scene edit, wrapping a Mutation)
// - variation.rendered
// - run.finished
//
// JSON mode remains an aggregate of Mutation values.
type Event struct {
	Type      string `json:"type"`
	Variation string `json:"variation,omitempty"`
	*Mutation
	Message    string `json:"message,omitempty"`
	Artifact   string `json:"artifact,omitempty"`
	Variations int    `json:"variations,omitempty"`
	Skipped    int    `json:"skipped,omitempty"`
	ExitCode   int    `json:"exit_code,omitempty"`
}

func eventFromMutation(m Mutation) Event {
	return Event{Type: "mutation", Variation: m.Variation, Mutation: &m}
}
