package ai

import (
	"fmt"
	"log"
	"strings"
	"time"
	"ventylab/config"

	"github.com/google/uuid"
)

// Request is a single generation request routed through the provider chain
type Request struct {
	Prompt            string
	PreferredProvider string // optional; empty means the configured default
}

// Result reports the outcome of a dispatch. Chain exhaustion is reported
// through Success=false, never through an error return.
type Result struct {
	ID                 string   `json:"id"`
	Success            bool     `json:"success"`
	Text               string   `json:"text,omitempty"`
	Provider           string   `json:"provider,omitempty"`
	OriginalProvider   string   `json:"originalProvider"`
	FallbackUsed       bool     `json:"fallbackUsed"`
	AttemptedProviders []string `json:"attemptedProviders"`
	RetryAfterSeconds  int      `json:"retryAfter,omitempty"` // set when every provider was rate limited
	Error              string   `json:"error,omitempty"`
}

// Manager routes generation requests across an ordered provider chain with
// a per-provider sliding-window rate limit. Construct one per process and
// inject it where needed; there is no package-level instance.
type Manager struct {
	providers []Provider
	limiter   *rateLimiter
}

// NewManager builds the provider chain from configuration. Providers
// without an API key are left out of the chain.
func NewManager(cfg *config.Config) *Manager {
	timeout := time.Duration(cfg.AITimeoutSeconds) * time.Second

	available := map[string]Provider{}
	if cfg.GeminiApiKey != "" {
		available[ProviderGemini] = NewGeminiProvider(cfg.GeminiApiKey, cfg.GeminiModel, timeout)
	}
	if cfg.OpenAIApiKey != "" {
		available[ProviderOpenAI] = NewOpenAIProvider(cfg.OpenAIApiKey, cfg.OpenAIModel, timeout)
	}
	if cfg.ClaudeApiKey != "" {
		available[ProviderClaude] = NewClaudeProvider(cfg.ClaudeApiKey, cfg.ClaudeModel, timeout)
	}

	var chain []Provider
	for _, name := range strings.Split(cfg.AIProviderOrder, ",") {
		name = strings.TrimSpace(strings.ToLower(name))
		if p, ok := available[name]; ok {
			chain = append(chain, p)
		}
	}
	if len(chain) == 0 {
		log.Println("ai: no providers configured, analysis requests will fail")
	}

	window := time.Duration(cfg.AIRateWindowSec) * time.Second
	return NewManagerWithProviders(chain, cfg.AIRateLimit, window)
}

// NewManagerWithProviders wires an explicit chain; used by NewManager and
// by tests that substitute fake providers.
func NewManagerWithProviders(providers []Provider, limit int, window time.Duration) *Manager {
	return &Manager{
		providers: providers,
		limiter:   newRateLimiter(limit, window),
	}
}

// Providers returns the names of the configured chain in order
func (m *Manager) Providers() []string {
	names := make([]string, len(m.providers))
	for i, p := range m.providers {
		names[i] = p.Name()
	}
	return names
}

// Dispatch tries the preferred provider first, then the rest of the chain
// in configured order. Rate-limited providers are skipped locally without
// a network call.
func (m *Manager) Dispatch(req Request) Result {
	result := Result{
		ID: uuid.NewString(),
	}

	chain := m.orderChain(req.PreferredProvider)
	if len(chain) == 0 {
		result.Error = "no AI providers configured"
		return result
	}
	result.OriginalProvider = chain[0].Name()

	minRetryAfter := time.Duration(-1)
	allRateLimited := true

	for _, provider := range chain {
		name := provider.Name()
		result.AttemptedProviders = append(result.AttemptedProviders, name)

		allowed, retryAfter := m.limiter.Allow(name)
		if !allowed {
			if minRetryAfter < 0 || retryAfter < minRetryAfter {
				minRetryAfter = retryAfter
			}
			log.Printf("ai: provider %s rate limited, retry in %s", name, retryAfter)
			continue
		}
		allRateLimited = false

		text, err := provider.Generate(req.Prompt)
		if err != nil {
			log.Printf("ai: provider %s failed: %v", name, err)
			continue
		}

		result.Success = true
		result.Text = text
		result.Provider = name
		result.FallbackUsed = name != result.OriginalProvider
		return result
	}

	result.Error = fmt.Sprintf("all providers exhausted: %s", strings.Join(result.AttemptedProviders, ", "))
	if allRateLimited && minRetryAfter >= 0 {
		result.RetryAfterSeconds = int(minRetryAfter.Round(time.Second) / time.Second)
	}
	return result
}

// PruneHistory drops expired rate-limit entries; called by the scheduler
func (m *Manager) PruneHistory() {
	m.limiter.Prune()
}

// orderChain moves the preferred provider to the front, keeping the rest
// of the configured order intact
func (m *Manager) orderChain(preferred string) []Provider {
	preferred = strings.TrimSpace(strings.ToLower(preferred))
	if preferred == "" {
		return m.providers
	}

	chain := make([]Provider, 0, len(m.providers))
	for _, p := range m.providers {
		if p.Name() == preferred {
			chain = append([]Provider{p}, chain...)
		} else {
			chain = append(chain, p)
		}
	}
	return chain
}
