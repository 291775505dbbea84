package internal

import (
	"context"
	"fmt"
	"strings"
)

// App holds the application state and dependencies
type App struct {
	catalog       VideoCatalog
	transcripts   *Transcripts
	ai            *AI
	promptManager *PromptManager
	config        *Config
	ui            UIManager
	closers       []func() error
}

// AppOption customizes App creation
type AppOption func(*appParts)

// appParts collects the collaborators NewApp wires together; options replace
// individual parts before anything is built from them.
type appParts struct {
	store       TranscriptStore
	catalog     VideoCatalog
	signer      Signer
	storageBase string
	fetcher     MediaFetcher
	extractor   AudioExtractor
	transcriber SpeechTranscriber
	ai          *AI
	ui          UIManager
}

// WithStore sets a custom transcript store and catalog
func WithStore(store TranscriptStore, catalog VideoCatalog) AppOption {
	return func(p *appParts) {
		p.store = store
		p.catalog = catalog
	}
}

// WithSigner sets a custom storage URL signer
func WithSigner(signer Signer, storageBase string) AppOption {
	return func(p *appParts) {
		p.signer = signer
		p.storageBase = storageBase
	}
}

// WithFetcher sets a custom media fetcher
func WithFetcher(fetcher MediaFetcher) AppOption {
	return func(p *appParts) { p.fetcher = fetcher }
}

// WithExtractor sets a custom audio extractor
func WithExtractor(extractor AudioExtractor) AppOption {
	return func(p *appParts) { p.extractor = extractor }
}

// WithTranscriber sets a custom transcription client
func WithTranscriber(transcriber SpeechTranscriber) AppOption {
	return func(p *appParts) { p.transcriber = transcriber }
}

// WithAI sets a custom Q&A processor
func WithAI(ai *AI) AppOption {
	return func(p *appParts) { p.ai = ai }
}

// WithUI sets a custom UI manager
func WithUI(ui UIManager) AppOption {
	return func(p *appParts) { p.ui = ui }
}

// NewApp initializes the application
func NewApp(ctx context.Context, config *Config, options ...AppOption) (*App, error) {
	parts := &appParts{}
	for _, option := range options {
		option(parts)
	}

	app := &App{config: config}

	if parts.store == nil {
		if err := app.connectStore(ctx, parts); err != nil {
			return nil, err
		}
	}
	if parts.fetcher == nil {
		parts.fetcher = NewFetcher(nil, config.Verbose)
	}
	if parts.extractor == nil {
		parts.extractor = NewAudio(&DefaultCommandRunner{}, config.FFmpegPath, config.AudioProfile(), config.Verbose)
	}
	if parts.transcriber == nil {
		parts.transcriber = NewTranscriber(
			ProviderConfig{Name: "primary", BaseURL: config.TranscriptionBaseURL, APIKey: config.TranscriptionAPIKey, Model: config.TranscriptionModel},
			ProviderConfig{Name: "fallback", BaseURL: config.FallbackBaseURL, APIKey: config.FallbackAPIKey, Model: config.FallbackModel},
			nil, config.Verbose)
	}
	if parts.ai == nil {
		parts.ai = NewAIWithKey(config.AnswerAPIKey, config.AnswerBaseURL, config.AnswerModel, config.AnswerTimeout, config.Verbose)
	}
	if parts.ui == nil {
		parts.ui = NewUIManager(config.Verbose, config.Quiet)
	}

	resolver := NewResolver(parts.signer, parts.storageBase, config.SignedURLTTL, config.Verbose)
	pipeline := NewPipeline(resolver, parts.fetcher, parts.extractor, parts.transcriber,
		config.TempDir, config.AudioExtension, config.Verbose)

	app.catalog = parts.catalog
	app.transcripts = NewTranscripts(parts.store, pipeline, config.PipelineTimeout, config.Verbose)
	app.ai = parts.ai
	app.promptManager = NewPromptManager(config.ConfigDir, config.Prompt)
	app.ui = parts.ui

	return app, nil
}

// connectStore builds the configured persistence backend. Supabase credentials,
// when present, always provide the URL signer.
func (app *App) connectStore(ctx context.Context, parts *appParts) error {
	var supa *SupabaseStore
	if app.config.SupabaseURL != "" && app.config.SupabaseKey != "" {
		var err error
		supa, err = NewSupabaseStore(app.config.SupabaseURL, app.config.SupabaseKey, app.config.VideosTable)
		if err != nil {
			return err
		}
		if parts.signer == nil {
			parts.signer = supa
			parts.storageBase = supa.StorageBase()
		}
	}

	switch app.config.Store {
	case StorePostgres:
		pg := NewPostgresStore(app.config.DatabaseURL, app.config.VideosTable)
		if err := pg.Connect(ctx); err != nil {
			return err
		}
		app.closers = append(app.closers, pg.Close)
		parts.store, parts.catalog = pg, pg
	case StoreSupabase, "":
		if supa == nil {
			return errSupabaseCredentials
		}
		parts.store, parts.catalog = supa, supa
	default:
		return fmt.Errorf("unsupported store %q (supported: %s, %s)", app.config.Store, StoreSupabase, StorePostgres)
	}
	return nil
}

// Close releases store connections
func (app *App) Close() error {
	var firstErr error
	for _, closeFn := range app.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// SetPromptManager sets a new prompt manager
func (app *App) SetPromptManager(pm *PromptManager) {
	app.promptManager = pm
}

// Video returns the catalog record for a video
func (app *App) Video(ctx context.Context, videoID string) (*Video, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return nil, fmt.Errorf("%w: video ID is required", ErrInvalidInput)
	}
	if app.catalog == nil {
		return nil, fmt.Errorf("no video catalog configured")
	}
	return app.catalog.Video(ctx, videoID)
}

// StoredTranscript returns the persisted transcript or "" without generating one
func (app *App) StoredTranscript(ctx context.Context, videoID string) (string, error) {
	return app.transcripts.Lookup(ctx, videoID)
}

// Transcript returns the transcript for (videoID, videoURL), generating and
// persisting it on first request
func (app *App) Transcript(ctx context.Context, videoID, videoURL string) (string, error) {
	return app.TranscriptWithStatus(ctx, videoID, videoURL, false)
}

// TranscriptWithStatus is Transcript with optional per-stage progress display
func (app *App) TranscriptWithStatus(ctx context.Context, videoID, videoURL string, showStatus bool) (string, error) {
	if !showStatus {
		return app.transcripts.Get(ctx, videoID, videoURL)
	}

	progress := app.ui.NewPipelineObserver()
	defer progress.Finish()
	return app.transcripts.GetWithObserver(ctx, videoID, videoURL, progress)
}

// TranscriptForVideo looks the video URL up in the catalog when videoURL is empty
func (app *App) TranscriptForVideo(ctx context.Context, videoID, videoURL string, showStatus bool) (string, error) {
	if strings.TrimSpace(videoURL) == "" {
		video, err := app.Video(ctx, videoID)
		if err != nil {
			return "", err
		}
		if video.HasTranscript() {
			return strings.TrimSpace(*video.Transcript), nil
		}
		videoURL = video.VideoURL
	}
	return app.TranscriptWithStatus(ctx, videoID, videoURL, showStatus)
}

// Ask answers a question about a video, using its transcript as context
func (app *App) Ask(ctx context.Context, videoID, question string, showStatus bool) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("%w: question is required", ErrInvalidInput)
	}

	video, err := app.Video(ctx, videoID)
	if err != nil {
		return "", err
	}

	transcript := ""
	if video.HasTranscript() {
		transcript = strings.TrimSpace(*video.Transcript)
	} else {
		transcript, err = app.TranscriptWithStatus(ctx, video.ID, video.VideoURL, showStatus)
		if err != nil {
			// title and description still make a usable prompt
			app.ui.Verbose("Answering without transcript: %v\n", err)
			transcript = ""
		}
	}

	prompt, err := app.promptManager.CreatePrompt(video, transcript, question)
	if err != nil {
		return "", fmt.Errorf("creating prompt: %w", err)
	}

	var spinner ProgressBar
	if showStatus {
		spinner = app.ui.NewSpinner("Thinking...")
		spinner.Advance()
		defer spinner.Finish()
	}

	answer, err := app.ai.Answer(ctx, AnswerSystemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("answering question: %w", err)
	}
	return strings.TrimSpace(answer), nil
}
