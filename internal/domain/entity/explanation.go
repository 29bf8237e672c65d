package entity

type AIResponse struct {
	Content    string         `json:"content"`
	Model      string         `json:"model"`
	TokenCount int            `json:"token_count"`
	Latency    int64          `json:"latency_ms"`
	Metadata   map[string]any `json:"metadata"`
}

// Explanation is the LLM's justification for a single recommendation.
type Explanation struct {
	Explanation string   `json:"explanation"`
	Evidence    []string `json:"evidence"`
	TokenCount  int      `json:"-"`
	Cached      bool     `json:"-"`
}
