package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	supabase "github.com/supabase-community/supabase-go"
)

// SupabaseStore reads the video catalog, writes transcripts and signs storage
// URLs through a hosted Supabase project.
type SupabaseStore struct {
	client     *supabase.Client
	projectURL string
	table      string
}

var errSupabaseCredentials = errors.New("supabase URL and key are required - set supabase_url/supabase_key in config.toml or SUPABASE_URL/SUPABASE_SERVICE_ROLE_KEY")

// NewSupabaseStore connects the Supabase SDK. Use the service role key on the
// server so row-level security does not hide the transcript column.
func NewSupabaseStore(projectURL, key, table string) (*SupabaseStore, error) {
	projectURL = strings.TrimRight(projectURL, "/")
	if projectURL == "" || key == "" {
		return nil, errSupabaseCredentials
	}
	client, err := supabase.NewClient(projectURL, key, nil)
	if err != nil {
		return nil, fmt.Errorf("initialize supabase SDK: %w", err)
	}
	return &SupabaseStore{
		client:     client,
		projectURL: projectURL,
		table:      table,
	}, nil
}

// StorageBase returns the storage API root that object URLs live under
func (s *SupabaseStore) StorageBase() string {
	return s.projectURL + "/storage/v1"
}

type transcriptRow struct {
	Transcript *string `json:"transcript"`
}

// Transcript implements TranscriptStore
func (s *SupabaseStore) Transcript(ctx context.Context, videoID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, _, err := s.client.From(s.table).
		Select("transcript", "", false).
		Eq("id", videoID).
		Execute()
	if err != nil {
		return "", fmt.Errorf("selecting transcript: %w", err)
	}

	var rows []transcriptRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return "", fmt.Errorf("parsing transcript row: %w", err)
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("%w: %s", ErrVideoNotFound, videoID)
	}
	if rows[0].Transcript == nil {
		return "", nil
	}
	return strings.TrimSpace(*rows[0].Transcript), nil
}

// SaveTranscript implements TranscriptStore. An update that matches no row
// is a failure, otherwise the transcript would be silently dropped.
func (s *SupabaseStore) SaveTranscript(ctx context.Context, videoID, transcript string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, _, err := s.client.From(s.table).
		Update(map[string]string{"transcript": transcript}, "representation", "").
		Eq("id", videoID).
		Execute()
	if err != nil {
		return fmt.Errorf("updating transcript: %w", err)
	}

	var rows []transcriptRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("parsing updated row: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: %w: %s", ErrPersistence, ErrVideoNotFound, videoID)
	}
	return nil
}

// Video implements VideoCatalog
func (s *SupabaseStore) Video(ctx context.Context, videoID string) (*Video, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, _, err := s.client.From(s.table).
		Select("id,video_url,title,description,transcript", "", false).
		Eq("id", videoID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("selecting video: %w", err)
	}

	var rows []Video
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing video row: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrVideoNotFound, videoID)
	}
	return &rows[0], nil
}

// SignURL implements Signer
func (s *SupabaseStore) SignURL(ctx context.Context, bucket, objectPath string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	resp, err := s.client.Storage.CreateSignedUrl(bucket, objectPath, int(ttl.Seconds()))
	if err != nil {
		return "", fmt.Errorf("creating signed URL: %w", err)
	}

	signed := resp.SignedURL
	if signed == "" {
		return "", fmt.Errorf("storage returned an empty signed URL for %s/%s", bucket, objectPath)
	}
	// The storage API answers with a path relative to the storage root.
	if !strings.HasPrefix(signed, "http://") && !strings.HasPrefix(signed, "https://") {
		signed = s.StorageBase() + "/" + strings.TrimLeft(signed, "/")
	}
	return signed, nil
}
