package internal

import (
	"bytes"
	"strings"

	"github.com/tidwall/gjson"
)

// TranscriptResult is the canonical form of a provider response
type TranscriptResult struct {
	Text string
}

// NormalizeTranscript maps a raw provider body onto a TranscriptResult.
//
// Accepted shapes:
//   - plain text
//   - a JSON string
//   - {"text": "..."}
//   - {"transcription": "..."}
//   - {"data": {"text": "..."}}
//
// Anything else yields an empty result.
func NormalizeTranscript(body []byte) TranscriptResult {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return TranscriptResult{}
	}

	// Only bodies that look like JSON strings or objects are parsed; a text
	// transcript that happens to be valid JSON (e.g. "42") stays text.
	if first := trimmed[0]; first != '{' && first != '"' {
		return TranscriptResult{Text: string(trimmed)}
	}
	if !gjson.ValidBytes(trimmed) {
		return TranscriptResult{Text: string(trimmed)}
	}

	root := gjson.ParseBytes(trimmed)
	switch root.Type {
	case gjson.String:
		return TranscriptResult{Text: strings.TrimSpace(root.Str)}
	case gjson.JSON:
		if !root.IsObject() {
			return TranscriptResult{}
		}
		for _, path := range []string{"text", "transcription", "data.text"} {
			if v := root.Get(path); v.Type == gjson.String {
				return TranscriptResult{Text: strings.TrimSpace(v.Str)}
			}
		}
		return TranscriptResult{}
	default:
		return TranscriptResult{}
	}
}
