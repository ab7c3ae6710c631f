package serve

import (
	"encoding/json"

	"github.com/sagardeyrakesh/sdpattern/pkg/types"
)

// Request represents an incoming NDJSON request
type Request struct {
	Type    string          `json:"type"` // "evaluate" | "evaluate_batch" | "stats" | "close"
	Payload json.RawMessage `json:"payload"`
}

// Item is one buffer to evaluate. Data (base64 in JSON) takes precedence
// over Content so hosts can send arbitrary bytes.
type Item struct {
	Source   string            `json:"source"`             // e.g., "http:request:42"
	Content  string            `json:"content,omitempty"`  // text content
	Data     []byte            `json:"data,omitempty"`     // raw content, base64 encoded
	Metadata map[string]string `json:"metadata,omitempty"` // optional metadata echoed back
}

// Bytes returns the buffer to evaluate.
func (i Item) Bytes() []byte {
	if len(i.Data) > 0 {
		return i.Data
	}
	return []byte(i.Content)
}

// EvaluatePayload is the payload for "evaluate" requests
type EvaluatePayload = Item

// EvaluateBatchPayload is the payload for "evaluate_batch" requests
type EvaluateBatchPayload struct {
	Items []Item `json:"items"`
}

// EvaluateResult is the outcome for a single item.
type EvaluateResult struct {
	Source   string            `json:"source"`
	Verdict  types.Verdict     `json:"verdict"` // match when any rule alerted
	Alerts   []*types.Alert    `json:"alerts"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// BatchResult holds the outcomes of an "evaluate_batch" request.
type BatchResult struct {
	Results []EvaluateResult `json:"results"`
	Total   int              `json:"total"`
}

// OptionStats are the counters of one compiled option.
type OptionStats struct {
	Pattern          string `json:"pattern"`
	Threshold        int    `json:"threshold"`
	Buffers          uint64 `json:"buffers"`
	Bytes            uint64 `json:"bytes"`
	Iterations       uint64 `json:"iterations"`
	Matches          uint64 `json:"matches"`
	ValidatorRejects uint64 `json:"validator_rejects"`
	GuardRejects     uint64 `json:"guard_rejects"`
	EarlyExits       uint64 `json:"early_exits"`
}

// StatsData is the data field for "stats" responses
type StatsData struct {
	Options []OptionStats `json:"options"`
}

// Response represents an outgoing NDJSON response
type Response struct {
	Success bool            `json:"success"`
	Type    string          `json:"type"` // "ready" | "evaluate" | "evaluate_batch" | "stats" | "decode" | request type on error
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ReadyData is the data field for "ready" responses
type ReadyData struct {
	Version string `json:"version"`
	Rules   int    `json:"rules"`
	Options int    `json:"options"`
}
