package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kdimtricp/replaycut/internal/models"
	"github.com/kdimtricp/replaycut/internal/sampler"
)

func testClient(serverURL string) *Client {
	return &Client{
		apiKey:     "test-key",
		model:      geminiModel,
		baseURL:    serverURL,
		httpClient: &http.Client{},
		logger:     zerolog.Nop(),
	}
}

func testFrames() []sampler.Frame {
	return []sampler.Frame{
		{TimestampSeconds: 0.0, JPEG: []byte("frame0")},
		{TimestampSeconds: 1.2, JPEG: []byte("frame1")},
	}
}

func candidateResponse(text string) string {
	resp := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func TestAnalyzeFramesSuccess(t *testing.T) {
	payload := `{
		"highlights": [
			{"timestampSeconds": 45.3, "displayTime": "00:45", "description": "Three-pointer from the corner", "scoreType": "three-pointer", "intensity": "High", "playerJerseyNumber": "23"}
		],
		"summary": "A close game."
	}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}

		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if len(req.Contents) != 1 {
			t.Fatalf("expected 1 content, got %d", len(req.Contents))
		}
		// prompt + (timestamp text + image) per frame
		if got := len(req.Contents[0].Parts); got != 5 {
			t.Errorf("expected 5 parts, got %d", got)
		}
		if req.GenerationConfig == nil || req.GenerationConfig.ResponseMIMEType != "application/json" {
			t.Errorf("expected structured JSON response config")
		}

		w.Write([]byte(candidateResponse(payload)))
	}))
	defer server.Close()

	client := testClient(server.URL)
	result, err := client.AnalyzeFrames(context.Background(), testFrames())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Highlights) != 1 {
		t.Fatalf("expected 1 highlight, got %d", len(result.Highlights))
	}
	if result.Highlights[0].PlayerJerseyNumber != "23" {
		t.Errorf("expected jersey 23, got %s", result.Highlights[0].PlayerJerseyNumber)
	}
	if result.Summary != "A close game." {
		t.Errorf("unexpected summary: %s", result.Summary)
	}
}

func TestAnalyzeFramesRepairsResponse(t *testing.T) {
	payload := `{
		"highlights": [
			{"timestampSeconds": 75.0, "displayTime": "bogus", "description": "Goal", "scoreType": "goal", "intensity": "HIGH", "playerJerseyNumber": ""},
			{"timestampSeconds": -3.0, "displayTime": "00:00", "description": "Phantom event", "scoreType": "goal", "intensity": "Low", "playerJerseyNumber": "9"}
		],
		"summary": "Summary."
	}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidateResponse(payload)))
	}))
	defer server.Close()

	result, err := testClient(server.URL).AnalyzeFrames(context.Background(), testFrames())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Highlights) != 1 {
		t.Fatalf("expected negative-timestamp event dropped, got %d highlights", len(result.Highlights))
	}
	h := result.Highlights[0]
	if h.PlayerJerseyNumber != models.UnknownJersey {
		t.Errorf("expected blank jersey repaired to Unknown, got %q", h.PlayerJerseyNumber)
	}
	if h.DisplayTime != "01:15" {
		t.Errorf("expected display time re-derived to 01:15, got %q", h.DisplayTime)
	}
	if h.Intensity != models.IntensityHigh {
		t.Errorf("expected intensity High, got %q", h.Intensity)
	}
}

func TestAnalyzeFramesErrorKinds(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind Kind
	}{
		{
			name:     "permission denied",
			status:   http.StatusForbidden,
			body:     `{"error": {"code": 403, "message": "The caller does not have permission", "status": "PERMISSION_DENIED"}}`,
			wantKind: KindAuthRequired,
		},
		{
			name:     "entity not found",
			status:   http.StatusNotFound,
			body:     `{"error": {"code": 404, "message": "Requested entity was not found.", "status": "NOT_FOUND"}}`,
			wantKind: KindAuthRequired,
		},
		{
			name:     "payload too large",
			status:   http.StatusBadRequest,
			body:     `{"error": {"code": 400, "message": "Request payload size exceeds the limit", "status": "INVALID_ARGUMENT"}}`,
			wantKind: KindPayloadTooLarge,
		},
		{
			name:     "empty candidates",
			status:   http.StatusOK,
			body:     `{"candidates": []}`,
			wantKind: KindEmptyResponse,
		},
		{
			name:     "schema mismatch",
			status:   http.StatusOK,
			body:     candidateResponse("this is not json"),
			wantKind: KindParseFailure,
		},
		{
			name:     "generic upstream failure",
			status:   http.StatusInternalServerError,
			body:     `{"error": {"code": 500, "message": "Internal error", "status": "INTERNAL"}}`,
			wantKind: KindUpstream,
		},
		{
			name:     "proxy html on auth failure",
			status:   http.StatusUnauthorized,
			body:     `<html><body>401 Unauthorized</body></html>`,
			wantKind: KindAuthRequired,
		},
		{
			name:     "non-json body on server error",
			status:   http.StatusBadGateway,
			body:     `<html><body>502 Bad Gateway</body></html>`,
			wantKind: KindUpstream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := testClient(server.URL).AnalyzeFrames(context.Background(), testFrames())
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if got := KindOf(err); got != tt.wantKind {
				t.Errorf("expected kind %s, got %s (%v)", tt.wantKind, got, err)
			}
		})
	}
}

func TestAnalyzeVideoInlineMode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		parts := req.Contents[0].Parts
		if len(parts) != 2 {
			t.Fatalf("expected prompt + inline video, got %d parts", len(parts))
		}
		if parts[1].InlineData == nil || parts[1].InlineData.MimeType != "video/mp4" {
			t.Errorf("expected inline video/mp4 part")
		}

		w.Write([]byte(candidateResponse(`{"highlights": [], "summary": "Nothing scored."}`)))
	}))
	defer server.Close()

	result, err := testClient(server.URL).AnalyzeVideo(context.Background(), []byte("video-bytes"), "video/mp4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Summary != "Nothing scored." {
		t.Errorf("unexpected summary: %s", result.Summary)
	}
}
