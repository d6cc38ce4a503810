package xray

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// readerPrompt instructs the remote model to produce the five labeled
// sections the normalizer extracts.
const readerPrompt = "你是一位资深放射科医生，拥有 20 年读片经验。请直接阅读这张医学影像，做出独立、全面的诊断分析。\n\n" +
	"请不限于任何预设疾病列表，从影像中观察到的所有异常表现出发，进行全面分析。\n\n" +
	"请严格按以下格式输出：\n" +
	"【影像所见】详细描述影像中的解剖结构、密度变化、异常表现等\n" +
	"【诊断结论】给出主要诊断和鉴别诊断（不限数量）\n" +
	"【诊断依据】说明做出判断的影像学依据\n" +
	"【医学建议】给出具体的进一步检查或治疗建议\n" +
	"【综合置信度】一个 0-100 的整数，表示你对该诊断结论的确信程度\n"

const readerMaxTokens = 1024

// Reader is the remote-tier surface consumed by the Analyzer.
type Reader interface {
	// Configured reports whether a credential is present.
	Configured() bool
	// Read returns the free-form report text, or ok=false when the
	// remote service is unavailable for any reason.
	Read(ctx context.Context, imageBytes []byte) (string, bool)
}

// RemoteReader calls an OpenAI-compatible multimodal chat-completion
// endpoint with a compressed image and a fixed instruction prompt. Every
// failure mode collapses to "unavailable"; causes are only logged.
type RemoteReader struct {
	cfg    RemoteConfig
	httpc  *http.Client
	logger *log.Logger
}

// NewRemoteReader builds a reader with a bounded single-attempt timeout.
func NewRemoteReader(cfg RemoteConfig, logger *log.Logger) *RemoteReader {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &RemoteReader{
		cfg:    cfg,
		httpc:  &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Configured reports whether an API key is set.
func (r *RemoteReader) Configured() bool {
	return r.cfg.APIKey != ""
}

// Read performs a single stateless chat-completion call. It never returns
// an error: non-2xx statuses, transport failures, malformed payloads and
// empty content all degrade to ok=false.
func (r *RemoteReader) Read(ctx context.Context, imageBytes []byte) (string, bool) {
	if !r.Configured() {
		return "", false
	}

	upload, err := shrinkForUpload(imageBytes)
	if err != nil {
		r.logf("[qwen-vl] preprocessing failed, sending original bytes: %v", err)
		upload = imageBytes
	} else if len(upload) != len(imageBytes) {
		r.logf("[qwen-vl] image compressed: %dKB -> %dKB", len(imageBytes)/1024, len(upload)/1024)
	}
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(upload)

	body := map[string]any{
		"model": r.cfg.Model,
		"messages": []any{
			map[string]any{
				"role": "user",
				"content": []any{
					map[string]any{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
					map[string]any{"type": "text", "text": readerPrompt},
				},
			},
		},
		"max_tokens": readerMaxTokens,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		r.logf("[qwen-vl] encode request: %v", err)
		return "", false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		r.logf("[qwen-vl] build request: %v", err)
		return "", false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)

	r.logf("[qwen-vl] calling %s model=%s", r.cfg.URL, r.cfg.Model)
	resp, err := r.httpc.Do(req)
	if err != nil {
		r.logf("[qwen-vl] request failed: %v", err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		r.logf("[qwen-vl] status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		return "", false
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		r.logf("[qwen-vl] decode response: %v", err)
		return "", false
	}
	if len(raw.Choices) == 0 {
		r.logf("[qwen-vl] response has no choices")
		return "", false
	}
	content := strings.TrimSpace(raw.Choices[0].Message.Content)
	if content == "" {
		r.logf("[qwen-vl] response content is empty")
		return "", false
	}
	r.logf("[qwen-vl] report received (%d chars)", len([]rune(content)))
	return content, true
}

func (r *RemoteReader) logf(format string, args ...any) {
	if r.logger != nil {
		r.logger.Printf(format, args...)
	}
}
