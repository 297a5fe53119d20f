
package models

// Fetch sources.
const (
	SourceCache = "cache"
	SourceLive  = "live"
)

type CacheEntry struct {
	URL       string  `json:"url"`
	FetchedAt int64   `json:"fetched_at"`
	Body      *string `json:"body"`
}

type FetchResult struct {
	URL       string
	FetchedAt int64
	Source    string
	Body      string
}

type Item struct {
	Href string `json:"href"`
	Text string `json:"text"`
}

type TargetBlock struct {
	Target    string `json:"community"`
	URL       string `json:"url"`
	Source    string `json:"source"`
	FetchedAt int64  `json:"fetched_at"`
	Title     string `json:"title,omitempty"`
	Posts     []Item `json:"posts"`
}

type RunResult struct {
	RunID string        `json:"run_id"`
	Data  []TargetBlock `json:"data"`
	New   []string      `json:"new"`
}

type Stats struct {
	Runs int  `json:"runs"`
	New  *int `json:"new,omitempty"`
}

// RunState is the closed schema of state.json. Keys other than these are
// dropped when the state is saved.
type RunState struct {
	LastRunAt   int64    `json:"lastRunAt"`
	LastSeenIDs []string `json:"lastSeenIds"`
	Stats       Stats    `json:"stats"`
}

type SideEffect struct {
	Type    string            `json:"type"`
	Target  string            `json:"target"`
	Status  string            `json:"status"`
	Details map[string]string `json:"details,omitempty"`
}

type Receipt struct {
	TS                int64        `json:"ts"`
	IdempotencyKey    string       `json:"idempotency_key"`
	InputsHash        string       `json:"inputs_hash"`
	Decision          string       `json:"decision"`
	SideEffects       []SideEffect `json:"side_effects"`
	ValidityCheckedAt int64        `json:"validity_checked_at"`
	Notes             string       `json:"notes"`
}

// ToolReceipt records a single tool invocation made outside the runner.
type ToolReceipt struct {
	TS      int64    `json:"ts"`
	Tool    string   `json:"tool"`
	Params  any      `json:"params"`
	Outputs []string `json:"outputs"`
	Reason  string   `json:"reason"`
	Cwd     string   `json:"cwd"`
}
