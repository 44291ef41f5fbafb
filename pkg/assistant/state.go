package assistant

import "encoding/json"

// State is the capture/processing state of an Assistant.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateTranscribing
	StateProcessing
)

// States lists every state in transition order.
var States = []State{StateIdle, StateRecording, StateTranscribing, StateProcessing}

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateTranscribing:
		return "transcribing"
	case StateProcessing:
		return "processing"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func stateNames() []string {
	names := make([]string, len(States))
	for i, s := range States {
		names[i] = s.String()
	}
	return names
}
