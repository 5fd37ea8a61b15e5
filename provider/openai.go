package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"

	lingo "github.com/sumitsaurabh927/lingo.dev-sub001"
)

// OpenAIBackend implements Backend using OpenAI's chat completion API.
type OpenAIBackend struct {
	client        *openai.Client
	model         string
	temperature   float32
	context       string
	glossary      map[string]string
	excludedTerms []string
}

// OpenAIConfig holds configuration for the OpenAI backend.
type OpenAIConfig struct {
	APIKey        string            // OpenAI API key
	Model         string            // Model to use (default: "gpt-4o-mini")
	Temperature   float32           // Temperature for generation (default: 0.3)
	BaseURL       string            // Custom base URL (optional)
	Context       string            // What the content is for, e.g. "developer documentation"
	Glossary      map[string]string // Preferred translations for recurring phrases
	ExcludedTerms []string          // Terms that must never be translated
}

// NewOpenAIBackend creates a new OpenAI backend.
func NewOpenAIBackend(cfg OpenAIConfig) *OpenAIBackend {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	return &OpenAIBackend{
		client:        openai.NewClientWithConfig(config),
		model:         model,
		temperature:   temperature,
		context:       cfg.Context,
		glossary:      cfg.Glossary,
		excludedTerms: cfg.ExcludedTerms,
	}
}

// Translate translates a chunk using OpenAI. Hints attached to ctx with
// lingo.ContextWithHints are sent along with the entries they belong to.
func (p *OpenAIBackend) Translate(ctx context.Context, chunk Dictionary, sourceLocale, targetLocale string) (Dictionary, error) {
	if chunk.Len() == 0 {
		return lingo.NewDictionary(targetLocale), nil
	}

	userMessage, err := p.buildUserMessage(chunk, lingo.HintsFromContext(ctx), sourceLocale, targetLocale)
	if err != nil {
		return Dictionary{}, &lingo.ProviderError{Message: "encoding request", Cause: err}
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.buildSystemPrompt(sourceLocale, targetLocale)},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
		Temperature: p.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return Dictionary{}, &lingo.ProviderError{
			Message:   "OpenAI API call failed",
			Cause:     err,
			Retryable: isRetryableError(err),
		}
	}

	if len(resp.Choices) == 0 {
		return Dictionary{}, &lingo.ProviderError{
			Message:   "no response from OpenAI",
			Retryable: true,
		}
	}

	return p.parseResponse(resp.Choices[0].Message.Content, chunk, targetLocale)
}

func (p *OpenAIBackend) buildSystemPrompt(sourceLocale, targetLocale string) string {
	sourceName := lingo.GetLanguageName(sourceLocale)
	targetName := lingo.GetLanguageName(targetLocale)

	contextText := "The content is general web content."
	if p.context != "" {
		contextText = fmt.Sprintf("The content is for: %s. Adapt the tone to be appropriate for this context.", p.context)
	}

	prompt := fmt.Sprintf(`# Role
You are an expert native translator. You translate content from %s to %s with the fluency and nuance of a highly educated native speaker.

# Context
%s

# Task
Translate every value of the "data" object into idiomatic %s.

# Style Guide
- **Natural Flow**: Avoid literal translations. Rephrase sentences to sound completely natural to a native speaker.
- **Vocabulary**: Use precise, culturally relevant terminology. Avoid awkward "translationese" or robotic phrasing.
- **Idioms**: Never translate idioms literally. Replace idioms with natural %s equivalents.
- **Placeholders**: Keep every {variable}, <function:name/>, <expression/> and <element:name>...</element:name> token exactly as written. Translate the text inside element tokens and move tokens where the grammar of %s requires.
- **Escapes**: Keep backslash escapes such as \{ and \< as they are.
- **Hints**: The "hints" object, when present, describes where an entry appears. Use it to disambiguate, do not translate it.`,
		sourceName, targetName, contextText, targetName, targetName, targetName)

	if len(p.glossary) > 0 {
		sources := make([]string, 0, len(p.glossary))
		for source := range p.glossary {
			sources = append(sources, source)
		}
		sort.Strings(sources)

		prompt += "\n\n# Glossary\nWhen you encounter these phrases, prefer these translations (unless context demands otherwise):"
		for _, source := range sources {
			prompt += fmt.Sprintf("\n- \"%s\" → %s", source, p.glossary[source])
		}
	}

	prompt += `

# Format
Return a valid JSON object with a single key "data" that has exactly the same nested keys as the input "data" object, with translated values.
Example: { "data": { "index.html": { "body/p[0]": "translated text" } } }
- Do NOT wrap in Markdown code blocks.
- Do NOT add keys that are not in the input.`

	if len(p.excludedTerms) > 0 {
		terms := strings.Join(p.excludedTerms, "\n- ")
		prompt += fmt.Sprintf("\n\n# Exclusions\nDo NOT translate the following terms. Keep them exactly as they appear in the source:\n- %s", terms)
	}

	return prompt
}

type requestPayload struct {
	SourceLocale string                       `json:"sourceLocale"`
	TargetLocale string                       `json:"targetLocale"`
	Data         map[string]map[string]string `json:"data"`
	Hints        map[string]map[string]string `json:"hints,omitempty"`
}

func (p *OpenAIBackend) buildUserMessage(chunk Dictionary, hints lingo.Hints, sourceLocale, targetLocale string) (string, error) {
	payload := requestPayload{
		SourceLocale: sourceLocale,
		TargetLocale: targetLocale,
		Data:         make(map[string]map[string]string, len(chunk.Files)),
	}

	for _, k := range chunk.Keys() {
		v, _ := chunk.Get(k.Document, k.Scope)
		if payload.Data[k.Document] == nil {
			payload.Data[k.Document] = make(map[string]string)
		}
		payload.Data[k.Document][k.Scope] = v

		if hint := hints[k]; hint != "" {
			if payload.Hints == nil {
				payload.Hints = make(map[string]map[string]string)
			}
			if payload.Hints[k.Document] == nil {
				payload.Hints[k.Document] = make(map[string]string)
			}
			payload.Hints[k.Document][k.Scope] = hint
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// parseResponse reads the translated entries from the model output. Keys
// that were not in chunk are ignored.
func (p *OpenAIBackend) parseResponse(content string, chunk Dictionary, targetLocale string) (Dictionary, error) {
	if !gjson.Valid(content) {
		return Dictionary{}, &lingo.ProviderError{
			Message:   "invalid response format from OpenAI",
			Retryable: false,
		}
	}

	root := gjson.Parse(content)
	if data := root.Get("data"); data.IsObject() {
		root = data
	}
	if !root.IsObject() {
		return Dictionary{}, &lingo.ProviderError{
			Message:   "response from OpenAI is not an object",
			Retryable: false,
		}
	}

	out := lingo.NewDictionary(targetLocale)
	root.ForEach(func(doc, entries gjson.Result) bool {
		if !entries.IsObject() {
			return true
		}
		entries.ForEach(func(key, value gjson.Result) bool {
			if chunk.Has(doc.String(), key.String()) {
				out.Set(doc.String(), key.String(), value.String())
			}
			return true
		})
		return true
	})

	return out, nil
}

func isRetryableError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}

	// Check for common retryable conditions
	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"rate limit",
		"timeout",
		"connection refused",
		"temporary",
		"503",
		"502",
		"429",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// Verify OpenAIBackend implements Backend
var _ Backend = (*OpenAIBackend)(nil)
