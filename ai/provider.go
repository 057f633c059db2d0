package ai

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Provider names used in the fallback chain and in config
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
)

// Provider generates free-text output for a prompt. Implementations wrap
// one vendor's REST API; the response text is passed through unparsed.
type Provider interface {
	Name() string
	Generate(prompt string) (string, error)
}

// --- Gemini ---

type geminiProvider struct {
	client *resty.Client
	apiKey string
	model  string
}

// NewGeminiProvider builds a provider for the Google Generative Language API
func NewGeminiProvider(apiKey, model string, timeout time.Duration) Provider {
	return &geminiProvider{
		client: resty.New().SetTimeout(timeout),
		apiKey: apiKey,
		model:  model,
	}
}

func (p *geminiProvider) Name() string { return ProviderGemini }

func (p *geminiProvider) Generate(prompt string) (string, error) {
	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent", p.model)

	resp, err := p.client.R().
		SetHeader("Content-Type", "application/json").
		SetQueryParam("key", p.apiKey).
		SetBody(map[string]interface{}{
			"contents": []map[string]interface{}{
				{"parts": []map[string]string{{"text": prompt}}},
			},
		}).
		SetResult(&result).
		Post(url)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %v", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("gemini API error: %s", resp.Status())
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	return result.Candidates[0].Content.Parts[0].Text, nil
}

// --- OpenAI ---

type openAIProvider struct {
	client *resty.Client
	apiKey string
	model  string
}

// NewOpenAIProvider builds a provider for the OpenAI chat completions API
func NewOpenAIProvider(apiKey, model string, timeout time.Duration) Provider {
	return &openAIProvider{
		client: resty.New().SetTimeout(timeout),
		apiKey: apiKey,
		model:  model,
	}
}

func (p *openAIProvider) Name() string { return ProviderOpenAI }

func (p *openAIProvider) Generate(prompt string) (string, error) {
	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	resp, err := p.client.R().
		SetHeader("Content-Type", "application/json").
		SetAuthToken(p.apiKey).
		SetBody(map[string]interface{}{
			"model": p.model,
			"messages": []map[string]string{
				{"role": "user", "content": prompt},
			},
		}).
		SetResult(&result).
		Post("https://api.openai.com/v1/chat/completions")
	if err != nil {
		return "", fmt.Errorf("openai request failed: %v", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("openai API error: %s", resp.Status())
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	return result.Choices[0].Message.Content, nil
}

// --- Claude ---

type claudeProvider struct {
	client *resty.Client
	apiKey string
	model  string
}

// NewClaudeProvider builds a provider for the Anthropic messages API
func NewClaudeProvider(apiKey, model string, timeout time.Duration) Provider {
	return &claudeProvider{
		client: resty.New().SetTimeout(timeout),
		apiKey: apiKey,
		model:  model,
	}
}

func (p *claudeProvider) Name() string { return ProviderClaude }

func (p *claudeProvider) Generate(prompt string) (string, error) {
	var result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}

	resp, err := p.client.R().
		SetHeader("Content-Type", "application/json").
		SetHeader("x-api-key", p.apiKey).
		SetHeader("anthropic-version", "2023-06-01").
		SetBody(map[string]interface{}{
			"model":      p.model,
			"max_tokens": 1024,
			"messages": []map[string]string{
				{"role": "user", "content": prompt},
			},
		}).
		SetResult(&result).
		Post("https://api.anthropic.com/v1/messages")
	if err != nil {
		return "", fmt.Errorf("claude request failed: %v", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("claude API error: %s", resp.Status())
	}
	if len(result.Content) == 0 {
		return "", fmt.Errorf("claude returned no content")
	}

	return result.Content[0].Text, nil
}
