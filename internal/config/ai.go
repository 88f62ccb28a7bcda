package config

import "time"

// AIConfig holds LLM gateway configuration
type AIConfig struct {
	APIKey  string `json:"-"` // Never serialize
	BaseURL string `json:"baseUrl,omitempty"`

	// Model used for screening report generation
	Model string `json:"model"`

	TimeoutMS int `json:"timeoutMs"`

	// MaxRPS and Burst throttle outbound gateway calls; excess requests
	// use the deterministic report instead of waiting.
	MaxRPS float64 `json:"maxRps"`
	Burst  int     `json:"burst"`

	// Disabled forces the deterministic path even with a key configured
	Disabled bool `json:"disabled"`
}

// DefaultAIConfig returns the AI configuration from the environment
func DefaultAIConfig() *AIConfig {
	return &AIConfig{
		APIKey:    getEnv("GEMINI_API_KEY", ""),
		BaseURL:   getEnv("GEMINI_BASE_URL", ""),
		Model:     getEnv("GEMINI_MODEL_SCREENING", "gemini-2.0-flash"),
		TimeoutMS: getEnvInt("AI_TIMEOUT_MS", 10000), // 10 second default timeout
		MaxRPS:    getEnvFloat("AI_MAX_RPS", 5),
		Burst:     getEnvInt("AI_BURST", 10),
		Disabled:  getEnvBool("AI_DISABLED"),
	}
}

// IsEnabled returns true if the AI gateway should be called
func (c *AIConfig) IsEnabled() bool {
	return c.APIKey != "" && !c.Disabled
}

// Timeout returns the per-attempt gateway timeout
func (c *AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}
