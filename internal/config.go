package internal

import (
	"context"
	"embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// CommandRunner executes external commands
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// DefaultCommandRunner implements CommandRunner. The process is killed when
// ctx is done.
type DefaultCommandRunner struct{}

func (r *DefaultCommandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = 5 * time.Second
	return cmd.CombinedOutput()
}

// Store backends
const (
	StoreSupabase = "supabase"
	StorePostgres = "postgres"
)

// Config holds application settings
type Config struct {
	// Persistence
	Store        string
	SupabaseURL  string
	SupabaseKey  string
	DatabaseURL  string
	VideosTable  string
	SignedURLTTL time.Duration

	// Audio extraction
	FFmpegPath      string
	AudioCodec      string
	AudioSampleRate int
	AudioChannels   int
	AudioExtension  string
	MaxDuration     time.Duration

	// Transcription providers
	TranscriptionBaseURL string
	TranscriptionAPIKey  string
	TranscriptionModel   string
	FallbackBaseURL      string
	FallbackAPIKey       string
	FallbackModel        string
	PipelineTimeout      time.Duration

	// Video Q&A
	AnswerBaseURL string
	AnswerAPIKey  string
	AnswerModel   string
	AnswerTimeout time.Duration
	Prompt        string

	Verbose       bool
	Quiet         bool
	MCPLogEnabled bool

	// Fixed XDG paths (not configurable)
	ConfigDir string
	CacheDir  string
	TempDir   string
}

//go:embed config.toml prompt.txt
var defaultFS embed.FS

// AudioProfile returns the extraction settings from config
func (c *Config) AudioProfile() AudioProfile {
	return AudioProfile{
		Codec:       c.AudioCodec,
		SampleRate:  c.AudioSampleRate,
		Channels:    c.AudioChannels,
		Extension:   c.AudioExtension,
		MaxDuration: c.MaxDuration,
	}
}

// ensureDefaultFile creates configDir/embedFilename from the embedded default
// if it doesn't exist yet
func ensureDefaultFile(configDir, embedFilename, description string) error {
	filePath := filepath.Join(configDir, embedFilename)
	if FileExists(filePath) {
		return nil
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	defaultContent, err := defaultFS.ReadFile(embedFilename)
	if err != nil {
		return fmt.Errorf("reading embedded default %s: %w", description, err)
	}

	if err := os.WriteFile(filePath, defaultContent, 0644); err != nil {
		return fmt.Errorf("writing default %s: %w", description, err)
	}

	fmt.Fprintf(os.Stderr, "Created default %s at %s\n", description, filePath)
	return nil
}

// EnsureDefaultConfig writes the default config.toml into the XDG config directory
func EnsureDefaultConfig(configDir string) error {
	return ensureDefaultFile(configDir, "config.toml", "configuration")
}

// EnsureDefaultPrompt writes the default Q&A prompt into the XDG config directory
func EnsureDefaultPrompt(configDir string) error {
	return ensureDefaultFile(configDir, "prompt.txt", "prompt template")
}

// InitConfig initializes Viper and loads configuration. configFile overrides
// the XDG config.toml lookup when set.
func InitConfig(configFile string) *Config {
	// A .env next to the binary is the usual way secrets reach this tool.
	_ = godotenv.Load()

	configDir := filepath.Join(xdg.ConfigHome, "skillcast")
	cacheDir := filepath.Join(xdg.CacheHome, "skillcast")
	tempDir := filepath.Join(cacheDir, "tmp")

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SKILLCAST")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Well-known variables used by the web app and provider SDKs
	_ = v.BindEnv("supabase_url", "SKILLCAST_SUPABASE_URL", "SUPABASE_URL", "NEXT_PUBLIC_SUPABASE_URL")
	_ = v.BindEnv("supabase_key", "SKILLCAST_SUPABASE_KEY", "SUPABASE_SERVICE_ROLE_KEY")
	_ = v.BindEnv("database_url", "SKILLCAST_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("transcription_api_key", "SKILLCAST_TRANSCRIPTION_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("fallback_api_key", "SKILLCAST_FALLBACK_API_KEY", "GROQ_API_KEY")
	_ = v.BindEnv("answer_api_key", "SKILLCAST_ANSWER_API_KEY", "OPENROUTER_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Warning: Error reading config file: %v\n", err)
		}
	}

	config := configFromViper(v)
	config.ConfigDir = configDir
	config.CacheDir = cacheDir
	config.TempDir = tempDir

	if config.Verbose {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	return config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store", StoreSupabase)
	v.SetDefault("videos_table", "videos")
	v.SetDefault("signed_url_ttl", DefaultSignedURLTTL)

	profile := DefaultAudioProfile()
	v.SetDefault("ffmpeg_path", "ffmpeg")
	v.SetDefault("audio_codec", profile.Codec)
	v.SetDefault("audio_sample_rate", profile.SampleRate)
	v.SetDefault("audio_channels", profile.Channels)
	v.SetDefault("audio_extension", profile.Extension)
	v.SetDefault("max_duration", profile.MaxDuration)

	v.SetDefault("transcription_base_url", "https://api.openai.com/v1/")
	v.SetDefault("transcription_model", "whisper-1")
	v.SetDefault("fallback_base_url", "https://api.groq.com/openai/v1/")
	v.SetDefault("fallback_model", "whisper-large-v3-turbo")
	v.SetDefault("pipeline_timeout", DefaultPipelineTimeout)

	v.SetDefault("answer_base_url", "https://openrouter.ai/api/v1/")
	v.SetDefault("answer_model", "mistralai/mistral-7b-instruct:free")
	v.SetDefault("answer_timeout", 2*time.Minute)
	v.SetDefault("prompt", "") // if empty will use default prompt template

	v.SetDefault("verbose", false)
	v.SetDefault("quiet", false)
	v.SetDefault("mcp_log", false)
}

func configFromViper(v *viper.Viper) *Config {
	return &Config{
		Store:        strings.ToLower(v.GetString("store")),
		SupabaseURL:  v.GetString("supabase_url"),
		SupabaseKey:  v.GetString("supabase_key"),
		DatabaseURL:  v.GetString("database_url"),
		VideosTable:  v.GetString("videos_table"),
		SignedURLTTL: v.GetDuration("signed_url_ttl"),

		FFmpegPath:      v.GetString("ffmpeg_path"),
		AudioCodec:      v.GetString("audio_codec"),
		AudioSampleRate: v.GetInt("audio_sample_rate"),
		AudioChannels:   v.GetInt("audio_channels"),
		AudioExtension:  v.GetString("audio_extension"),
		MaxDuration:     v.GetDuration("max_duration"),

		TranscriptionBaseURL: v.GetString("transcription_base_url"),
		TranscriptionAPIKey:  v.GetString("transcription_api_key"),
		TranscriptionModel:   v.GetString("transcription_model"),
		FallbackBaseURL:      v.GetString("fallback_base_url"),
		FallbackAPIKey:       v.GetString("fallback_api_key"),
		FallbackModel:        v.GetString("fallback_model"),
		PipelineTimeout:      v.GetDuration("pipeline_timeout"),

		AnswerBaseURL: v.GetString("answer_base_url"),
		AnswerAPIKey:  v.GetString("answer_api_key"),
		AnswerModel:   v.GetString("answer_model"),
		AnswerTimeout: v.GetDuration("answer_timeout"),
		Prompt:        v.GetString("prompt"),

		Verbose:       v.GetBool("verbose"),
		Quiet:         v.GetBool("quiet"),
		MCPLogEnabled: v.GetBool("mcp_log"),
	}
}
