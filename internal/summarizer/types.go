package summarizer

// Requestor is the person the meeting's work is requested for. The model
// fills user and id (email); SysID/SNName are merged in later by the
// directory lookup, and Error records a failed lookup without aborting.
type Requestor struct {
	User   string `json:"user"`
	ID     string `json:"id"`
	SysID  string `json:"sys_id,omitempty"`
	SNName string `json:"sn_name,omitempty"`
	Error  string `json:"error,omitempty"`
}

// NewStory is a proposed work item the model recommends creating.
type NewStory struct {
	ShortDesc          string `json:"short_desc"`
	AcceptanceCriteria string `json:"acceptance_criteria"`
}

// ExistingStory is a work item the model identified as already tracked.
type ExistingStory struct {
	ShortDesc          string `json:"short_desc"`
	Number             string `json:"number"`
	AcceptanceCriteria string `json:"acceptance_criteria"`
}

// Result is the structured summary of one transcript. Any field may be
// null/empty when the model could not detect it; consumers must tolerate
// that.
type Result struct {
	Summary         string          `json:"summary"`
	Requestor       *Requestor      `json:"requestor"`
	NewStories      []NewStory      `json:"new_stories"`
	ExistingStories []ExistingStory `json:"existing_stories"`
}
