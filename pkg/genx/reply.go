package genx

var (
	_ Reply = TextReply("")
	_ Reply = (*ToolInvocation)(nil)
)

// Reply is the decoded first part of a backend response.
type Reply interface {
	isReply()
}

// TextReply is a plain text answer.
type TextReply string

func (TextReply) isReply() {}

// ToolInvocation is a request from the model to call a declared tool.
type ToolInvocation struct {
	// ID identifies the call for backends that correlate results by ID.
	// Gemini does not always set one; Name is used in that case.
	ID   string
	Name string
	Args map[string]any
}

func (*ToolInvocation) isReply() {}

// CallID returns ID, falling back to Name.
func (t *ToolInvocation) CallID() string {
	if t.ID != "" {
		return t.ID
	}
	return t.Name
}

// Arguments returns Args encoded as a JSON object.
func (t *ToolInvocation) Arguments() string {
	if len(t.Args) == 0 {
		return "{}"
	}
	b, err := marshalJSON(t.Args)
	if err != nil {
		return "{}"
	}
	return string(b)
}
