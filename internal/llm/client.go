package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrNotReady is returned by Query, StreamQuery and PullModel after
// Shutdown or before Initialize.
var ErrNotReady = errors.New("generation backend not ready")

const (
	defaultTimeout   = 120 * time.Second
	defaultQueueSize = 64
	repeatPenalty    = 1.1
	mockConfidence   = 0.75
	mockTokensUsed   = 150
	mockModelName    = "mock-model"
)

var stopSequences = []string{"</s>", "Human:", "Assistant:"}

// Config holds the generation backend connection and sampling settings.
type Config struct {
	BaseURL      string
	Model        string
	APIKey       string
	SystemPrompt string
	Temperature  float64
	TopP         float64
	MaxTokens    int
	Timeout      time.Duration
	QueueSize    int
}

// Client wraps an Ollama-compatible generation API. All single-shot
// queries pass through one FIFO queue drained by a single worker, so at
// most one generation request is in flight at any time.
type Client struct {
	cfg    Config
	httpc  *http.Client
	log    zerolog.Logger
	scorer Scorer

	mu              sync.Mutex
	ready           bool
	processing      bool
	availableModels []string
	done            chan struct{}

	queue chan *pendingQuery
}

type pendingQuery struct {
	ctx   context.Context
	query MedicalQuery
	reply chan queryResult
}

type queryResult struct {
	resp *Response
	err  error
}

func New(cfg Config, log zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	return &Client{
		cfg:    cfg,
		httpc:  &http.Client{},
		log:    log,
		scorer: HeuristicScorer{},
		queue:  make(chan *pendingQuery, cfg.QueueSize),
	}
}

// SetScorer replaces the confidence scorer. Intended for tests and for
// callers that want calibrated scoring.
func (c *Client) SetScorer(s Scorer) { c.scorer = s }

// Initialize probes the backend and starts the dispatch worker. A failed
// probe does not fail initialization: the client still becomes ready, in
// a degraded mode where every response is simulated. User-facing
// availability is prioritized over strict correctness, and the degraded
// state is surfaced through Status (empty AvailableModels).
func (c *Client) Initialize(ctx context.Context) error {
	models, err := c.fetchModels(ctx)
	if err != nil {
		c.log.Warn().Err(err).Str("url", c.cfg.BaseURL).
			Msg("generation backend unreachable, running in degraded mode with simulated responses")
		models = nil
	} else {
		c.log.Info().Strs("models", models).Msg("generation backend initialized")
	}

	c.mu.Lock()
	if !c.ready {
		c.ready = true
		c.done = make(chan struct{})
		go c.worker(c.done)
	}
	c.availableModels = models
	c.mu.Unlock()
	return nil
}

// Shutdown stops accepting calls. Queued callers fail with ErrNotReady.
func (c *Client) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		return
	}
	c.ready = false
	close(c.done)
	c.log.Info().Msg("generation backend shut down")
}

// readyState returns readiness together with the current generation's
// done channel, so callers observe a consistent pair.
func (c *Client) readyState() (bool, chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready, c.done
}

func (c *Client) isReady() bool {
	ready, _ := c.readyState()
	return ready
}

// Status reports readiness, queue depth and the model list from the last
// successful probe.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	models := make([]string, len(c.availableModels))
	copy(models, c.availableModels)
	return Status{
		Ready:           c.ready,
		QueueLength:     len(c.queue),
		Processing:      c.processing,
		AvailableModels: models,
	}
}

// Query enqueues the medical query and blocks until the worker has
// produced a response. Submission order is strictly preserved. The
// returned error is ErrNotReady after shutdown or a context error; a
// backend failure never surfaces as an error, it degrades to a simulated
// response instead.
func (c *Client) Query(ctx context.Context, q MedicalQuery) (*Response, error) {
	ready, done := c.readyState()
	if !ready {
		return nil, ErrNotReady
	}
	if q.TaskType == "" {
		q.TaskType = TaskGeneral
	}
	if !validTaskTypes[q.TaskType] {
		return nil, fmt.Errorf("invalid task type: %s", q.TaskType)
	}

	pending := &pendingQuery{ctx: ctx, query: q, reply: make(chan queryResult, 1)}
	select {
	case c.queue <- pending:
	case <-done:
		return nil, ErrNotReady
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-pending.reply:
		return res.resp, res.err
	case <-done:
		return nil, ErrNotReady
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) worker(done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case pending := <-c.queue:
			c.setProcessing(true)
			resp := c.process(pending.ctx, pending.query)
			c.setProcessing(false)
			pending.reply <- queryResult{resp: resp}
		}
	}
}

func (c *Client) setProcessing(v bool) {
	c.mu.Lock()
	c.processing = v
	c.mu.Unlock()
}

// process issues one generation request. Any transport, HTTP or timeout
// failure degrades to a canned task-type response rather than an error:
// a generation call always returns a response value.
func (c *Client) process(ctx context.Context, q MedicalQuery) *Response {
	start := time.Now()
	prompt := BuildPrompt(c.cfg.SystemPrompt, q)

	resp, err := c.generate(ctx, prompt)
	if err != nil {
		c.log.Warn().Err(err).Str("task_type", string(q.TaskType)).
			Msg("generation request failed, returning simulated response")
		return &Response{
			Text:             fallbackResponse(q.TaskType),
			Confidence:       mockConfidence,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
			TokensUsed:       mockTokensUsed,
			ModelUsed:        mockModelName,
			Simulated:        true,
		}
	}

	model := resp.Model
	if model == "" {
		model = c.cfg.Model
	}
	return &Response{
		Text:             resp.Response,
		Confidence:       c.scorer.Score(resp.Response),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		TokensUsed:       resp.EvalCount,
		ModelUsed:        model,
	}
}

type generateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options"`
}

type generateResponse struct {
	Model     string `json:"model"`
	Response  string `json:"response"`
	EvalCount int    `json:"eval_count"`
}

func (c *Client) samplingOptions(stream bool) map[string]interface{} {
	opts := map[string]interface{}{
		"temperature":    c.cfg.Temperature,
		"top_p":          c.cfg.TopP,
		"num_predict":    c.cfg.MaxTokens,
		"repeat_penalty": repeatPenalty,
	}
	if !stream {
		opts["stop"] = stopSequences
	}
	return opts
}

func (c *Client) generate(ctx context.Context, prompt string) (*generateResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(generateRequest{
		Model:   c.cfg.Model,
		Prompt:  prompt,
		Stream:  false,
		Options: c.samplingOptions(false),
	})
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/generate", body)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generation API error: %s", resp.Status)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding generation response: %w", err)
	}
	return &out, nil
}

// StreamQuery requests incremental chunks. Unlike Query it does not pass
// through the FIFO queue and it propagates connection errors: streaming
// has no simulated fallback. The caller must drain or Close the stream.
func (c *Client) StreamQuery(ctx context.Context, q MedicalQuery) (*Stream, error) {
	if !c.isReady() {
		return nil, ErrNotReady
	}
	if q.TaskType == "" {
		q.TaskType = TaskGeneral
	}

	prompt := BuildPrompt(c.cfg.SystemPrompt, q)
	body, err := json.Marshal(generateRequest{
		Model:   c.cfg.Model,
		Prompt:  prompt,
		Stream:  true,
		Options: c.samplingOptions(true),
	})
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/generate", body)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("generation API error: %s", resp.Status)
	}
	return newStream(resp.Body), nil
}

// PullModel asks the backend to download a model, refreshing the model
// list on success.
func (c *Client) PullModel(ctx context.Context, name string) bool {
	if !c.isReady() {
		return false
	}

	body, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return false
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/pull", body)
	if err != nil {
		return false
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("model", name).Msg("failed to pull model")
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false
	}

	if models, err := c.fetchModels(ctx); err == nil {
		c.mu.Lock()
		c.availableModels = models
		c.mu.Unlock()
	}
	return true
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func (c *Client) fetchModels(ctx context.Context) ([]string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tags API error: %s", resp.Status)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("decoding tags response: %w", err)
	}
	models := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		models = append(models, m.Name)
	}
	return models, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	return req, nil
}
