package analysis

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kdimtricp/replaycut/internal/models"
	"github.com/kdimtricp/replaycut/internal/sampler"
)

const (
	geminiAPIBase = "https://generativelanguage.googleapis.com/v1beta"
	geminiModel   = "gemini-2.5-flash"
)

const analysisPrompt = "You are a sports analyst. Identify every scoring event in this video. " +
	"For each event report: the timestamp in seconds from the start, the same time as MM:SS, " +
	"a one-sentence description of the play, the score type (e.g. goal, touchdown, three-pointer), " +
	"the intensity of the moment as High, Medium or Low, and the scoring player's jersey number " +
	"or the literal \"Unknown\" if it is not visible. Also provide a short summary of the game."

// Client talks to the Gemini generateContent API and validates its structured
// response. It performs no retries; retry policy belongs to the caller.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewClient(apiKey string, logger zerolog.Logger) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   geminiModel,
		baseURL: geminiAPIBase,
		// Video analysis routinely runs for minutes; rely on the platform
		// default instead of a client timeout, but keep cancellation via ctx.
		httpClient: &http.Client{},
		logger:     logger.With().Str("component", "analysis").Logger(),
	}
}

// AnalyzeFrames sends sampled frames interleaved with per-frame timestamp
// annotations and returns the validated result.
func (c *Client) AnalyzeFrames(ctx context.Context, frames []sampler.Frame) (*models.AnalysisResult, error) {
	if len(frames) == 0 {
		return nil, &Error{Kind: KindUpstream, Msg: "no frames to analyze"}
	}

	parts := make([]geminiPart, 0, len(frames)*2+1)
	parts = append(parts, geminiPart{Text: analysisPrompt})
	for _, frame := range frames {
		parts = append(parts, geminiPart{
			Text: fmt.Sprintf("Frame at %.1f seconds:", frame.TimestampSeconds),
		})
		parts = append(parts, geminiPart{
			InlineData: &geminiInlineData{
				MimeType: "image/jpeg",
				Data:     base64.StdEncoding.EncodeToString(frame.JPEG),
			},
		})
	}

	c.logger.Info().Int("frames", len(frames)).Msg("analyzing sampled frames")
	return c.generate(ctx, parts)
}

// AnalyzeVideo sends the raw video bytes inline instead of sampled frames.
func (c *Client) AnalyzeVideo(ctx context.Context, videoData []byte, mimeType string) (*models.AnalysisResult, error) {
	if len(videoData) == 0 {
		return nil, &Error{Kind: KindUpstream, Msg: "no video data to analyze"}
	}

	parts := []geminiPart{
		{Text: analysisPrompt},
		{InlineData: &geminiInlineData{
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(videoData),
		}},
	}

	c.logger.Info().Int("bytes", len(videoData)).Str("mime", mimeType).Msg("analyzing inline video")
	return c.generate(ctx, parts)
}

func (c *Client) generate(ctx context.Context, parts []geminiPart) (*models.AnalysisResult, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{{Parts: parts}},
		GenerationConfig: &generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   resultSchema(),
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &Error{Kind: KindUpstream, Msg: "failed to marshal request", Err: err}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, &Error{Kind: KindUpstream, Msg: "failed to create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindUpstream, Msg: "request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindUpstream, Msg: "failed to read response", Err: err}
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		// Proxies can return non-JSON bodies on auth failures; the status
		// code still carries the classification.
		if resp.StatusCode != http.StatusOK {
			return nil, classifyAPIError(resp.StatusCode, &geminiError{Message: string(body)})
		}
		return nil, &Error{Kind: KindParseFailure, Msg: "unreadable response body", Err: err}
	}

	if geminiResp.Error != nil {
		return nil, classifyAPIError(resp.StatusCode, geminiResp.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyAPIError(resp.StatusCode, &geminiError{Message: string(body)})
	}

	text := geminiResp.text()
	if text == "" {
		return nil, &Error{Kind: KindEmptyResponse, Msg: "no content returned"}
	}

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, &Error{Kind: KindParseFailure, Msg: "response does not match schema", Err: err}
	}

	normalizeResult(&result)
	c.logger.Info().Int("highlights", len(result.Highlights)).Msg("analysis complete")
	return &result, nil
}

func classifyAPIError(status int, apiErr *geminiError) *Error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden ||
		apiErr.Status == "UNAUTHENTICATED" || apiErr.Status == "PERMISSION_DENIED" ||
		apiErr.Status == "NOT_FOUND":
		return &Error{Kind: KindAuthRequired, Msg: apiErr.Message}
	case status == http.StatusRequestEntityTooLarge ||
		strings.Contains(strings.ToLower(apiErr.Message), "payload size exceeds"):
		return &Error{Kind: KindPayloadTooLarge, Msg: apiErr.Message}
	default:
		return &Error{Kind: KindUpstream, Msg: apiErr.Message}
	}
}

type geminiRequest struct {
	Contents         []geminiContent   `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseMIMEType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   json.RawMessage `json:"responseSchema,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *geminiError `json:"error"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (r *geminiResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, part := range r.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String()
}

// resultSchema declares the response contract enforced server-side.
func resultSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"highlights": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"timestampSeconds": {"type": "number"},
						"displayTime": {"type": "string"},
						"description": {"type": "string"},
						"scoreType": {"type": "string"},
						"intensity": {"type": "string", "enum": ["High", "Medium", "Low"]},
						"playerJerseyNumber": {"type": "string"}
					},
					"required": ["timestampSeconds", "displayTime", "description", "scoreType", "intensity", "playerJerseyNumber"]
				}
			},
			"summary": {"type": "string"}
		},
		"required": ["highlights", "summary"]
	}`)
}
