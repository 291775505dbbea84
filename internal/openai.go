package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// OpenAIClientInterface defines the interface for OpenAI-compatible API operations
type OpenAIClientInterface interface {
	CreateTranscription(ctx context.Context, file *os.File, model string) ([]byte, error)
	CreateChatCompletion(ctx context.Context, model, system, prompt string) (string, error)
}

// OpenAIClient wraps the official OpenAI Go SDK. Any OpenAI-compatible API
// (Groq, OpenRouter, Hugging Face routers) can be reached through baseURL.
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient creates a new client. SDK retries are disabled; the only
// retry in the pipeline is the provider fallback.
func NewOpenAIClient(apiKey, baseURL string, httpClient *http.Client) *OpenAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	client := openai.NewClient(opts...)
	return &OpenAIClient{client: &client}
}

// CreateTranscription submits audio and returns the raw response body.
// Plain text is requested so no structured parse is needed.
func (c *OpenAIClient) CreateTranscription(ctx context.Context, file *os.File, model string) ([]byte, error) {
	var body []byte
	_, err := c.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:           file,
		Model:          openai.AudioModel(model),
		ResponseFormat: openai.AudioResponseFormatText,
	}, option.WithResponseBodyInto(&body))
	if err != nil {
		return nil, err
	}
	return body, nil
}

// CreateChatCompletion implements the chat completion method
func (c *OpenAIClient) CreateChatCompletion(ctx context.Context, model, system, prompt string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices from model %s", model)
	}
	return resp.Choices[0].Message.Content, nil
}

// ProviderConfig configures one transcription provider
type ProviderConfig struct {
	Name    string
	BaseURL string
	APIKey  string
	Model   string
}

type provider struct {
	name   string
	model  string
	client OpenAIClientInterface
}

// Transcriber submits audio to the primary provider and, when the primary
// rejects the endpoint with 405, once to the secondary.
type Transcriber struct {
	primary   *provider
	secondary *provider
	verbose   bool
}

// NewTranscriber builds provider clients from config. The secondary is only
// enabled when it has an API key.
func NewTranscriber(primary, secondary ProviderConfig, httpClient *http.Client, verbose bool) *Transcriber {
	t := &Transcriber{verbose: verbose}
	if primary.APIKey != "" {
		t.primary = &provider{
			name:   primary.Name,
			model:  primary.Model,
			client: NewOpenAIClient(primary.APIKey, primary.BaseURL, httpClient),
		}
	}
	if secondary.APIKey != "" {
		t.secondary = &provider{
			name:   secondary.Name,
			model:  secondary.Model,
			client: NewOpenAIClient(secondary.APIKey, secondary.BaseURL, httpClient),
		}
	}
	return t
}

// NewTranscriberWithClients wires pre-built clients. A nil secondary disables the fallback.
func NewTranscriberWithClients(primary OpenAIClientInterface, primaryModel string, secondary OpenAIClientInterface, secondaryModel string, verbose bool) *Transcriber {
	t := &Transcriber{
		primary: &provider{name: "primary", model: primaryModel, client: primary},
		verbose: verbose,
	}
	if secondary != nil {
		t.secondary = &provider{name: "secondary", model: secondaryModel, client: secondary}
	}
	return t
}

// Transcribe returns the trimmed transcript for the audio file
func (t *Transcriber) Transcribe(ctx context.Context, audioFile string) (string, error) {
	if t.primary == nil {
		return "", fmt.Errorf("%w: no transcription API key configured - set transcription_api_key in config.toml or OPENAI_API_KEY", ErrTranscriptionAuth)
	}

	text, err := t.submit(ctx, t.primary, audioFile)
	if err == nil {
		return text, nil
	}

	var provErr *ProviderError
	if !errors.As(err, &provErr) || provErr.StatusCode != http.StatusMethodNotAllowed {
		return "", err
	}

	if t.secondary == nil {
		return "", fmt.Errorf("%w: %s rejected the transcription endpoint (405) and no fallback is configured - set fallback_api_key in config.toml or GROQ_API_KEY: %w",
			ErrTranscriptionUnavailable, t.primary.name, err)
	}

	if t.verbose {
		fmt.Printf("%s rejected the request (405), retrying with %s (%s)\n", t.primary.name, t.secondary.name, t.secondary.model)
	}
	return t.submit(ctx, t.secondary, audioFile)
}

func (t *Transcriber) submit(ctx context.Context, p *provider, audioFile string) (string, error) {
	file, err := os.Open(audioFile)
	if err != nil {
		return "", fmt.Errorf("%w: opening audio %s: %w", ErrTranscription, audioFile, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close file %s: %v\n", audioFile, closeErr)
		}
	}()

	if t.verbose {
		fmt.Printf("Transcribing %s with %s (%s)\n", audioFile, p.name, p.model)
	}

	body, err := p.client.CreateTranscription(ctx, file, p.model)
	if err != nil {
		return "", classifyProviderError(p.name, err)
	}

	result := NormalizeTranscript(body)
	if result.Text == "" {
		return "", fmt.Errorf("%w: %s returned an empty or unrecognized response", ErrEmptyTranscription, p.name)
	}
	return result.Text, nil
}

// classifyProviderError maps SDK errors onto the pipeline's error kinds
func classifyProviderError(name string, err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return &ProviderError{Provider: name, Err: fmt.Errorf("%w: %w", ErrTranscription, err)}
	}

	switch apiErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &ProviderError{Provider: name, StatusCode: apiErr.StatusCode, Err: fmt.Errorf("%w: %w", ErrTranscriptionAuth, err)}
	default:
		return &ProviderError{Provider: name, StatusCode: apiErr.StatusCode, Err: fmt.Errorf("%w: %w", ErrTranscription, err)}
	}
}

// AI answers questions about videos through a chat completion endpoint
type AI struct {
	client     OpenAIClientInterface
	model      string
	baseURL    string
	apiKey     string
	timeout    time.Duration
	verbose    bool
	clientOnce sync.Once
}

// NewAI creates a new AI processor with a ready client
func NewAI(client OpenAIClientInterface, model string, timeout time.Duration, verbose bool) *AI {
	return &AI{
		client:  client,
		model:   model,
		timeout: timeout,
		verbose: verbose,
	}
}

// NewAIWithKey creates a new AI processor with lazy client initialization
func NewAIWithKey(apiKey, baseURL, model string, timeout time.Duration, verbose bool) *AI {
	return &AI{
		model:   model,
		baseURL: baseURL,
		apiKey:  apiKey,
		timeout: timeout,
		verbose: verbose,
	}
}

// ensureClient initializes the client if needed
func (ai *AI) ensureClient() error {
	if ai.client != nil {
		return nil
	}
	if ai.apiKey == "" {
		return ValidateAnswerAPIKey("")
	}

	ai.clientOnce.Do(func() {
		ai.client = NewOpenAIClient(ai.apiKey, ai.baseURL, nil)
	})
	return nil
}

// Answer sends a prepared prompt and returns the model's reply
func (ai *AI) Answer(ctx context.Context, system, prompt string) (string, error) {
	if err := ai.ensureClient(); err != nil {
		return "", err
	}

	if ai.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ai.timeout)
		defer cancel()
	}

	if ai.verbose {
		fmt.Printf("Asking %s\n", ai.model)
	}

	content, err := ai.client.CreateChatCompletion(ctx, ai.model, system, prompt)
	if err != nil {
		return "", fmt.Errorf("creating chat completion: %w", err)
	}
	return content, nil
}
