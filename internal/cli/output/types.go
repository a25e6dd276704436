package output

// JSON output shapes shared by the flow commands.

// NodeOutput is one node in JSON output.
type NodeOutput struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	Step   int     `json:"step"`
	Count  int     `json:"count"`
	Weight float64 `json:"weight"`
	Color  string  `json:"color"`
	State  string  `json:"state,omitempty"`
}

// LinkOutput is one link in JSON output.
type LinkOutput struct {
	ID      string  `json:"id"`
	Source  string  `json:"source"`
	Target  string  `json:"target"`
	Count   int     `json:"count"`
	Amount  float64 `json:"amount"`
	Weight  float64 `json:"weight"`
	State   string  `json:"state,omitempty"`
	Overlay bool    `json:"overlay,omitempty"`
}

// GraphOutput is the JSON form of a built and projected graph.
type GraphOutput struct {
	Object      string       `json:"object"`
	Steps       []string     `json:"steps"`
	Metric      string       `json:"metric"`
	Fingerprint string       `json:"fingerprint"`
	Records     int          `json:"records"`
	Truncated   bool         `json:"truncated,omitempty"`
	Mode        string       `json:"mode"`
	Nodes       []NodeOutput `json:"nodes"`
	Links       []LinkOutput `json:"links"`
	Warnings    []string     `json:"warnings,omitempty"`
}

// SavedConfigOutput is a saved configuration in JSON list output.
type SavedConfigOutput struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Object       string `json:"object"`
	Path         string `json:"path"`
	Metric       string `json:"metric"`
	UpdatedAt    string `json:"updated_at"`
	LastOpenedAt string `json:"last_opened_at,omitempty"`
}
