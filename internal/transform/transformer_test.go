package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobbyapp/cv-transformer/internal/auth"
	"github.com/bobbyapp/cv-transformer/internal/parsing"
	"github.com/bobbyapp/cv-transformer/internal/templates"
	"github.com/bobbyapp/cv-transformer/internal/types"
)

const sampleCV = `{
	"header": {"title": "Jean Dupont — Développeur", "experienceSummary": "10 ans d'expérience"},
	"sections": [
		{"id": "experiences", "title": "Expériences", "content": [
			{"type": "experience", "client": "ACME", "period": "2020-2022", "title": "Lead Dev", "content": []}
		]}
	]
}`

// fakeClock advances by a fixed step on every read, making elapsed-time
// reporting deterministic.
type fakeClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// memoryDownloader captures the download side effect.
type memoryDownloader struct {
	filename string
	data     []byte
	calls    int
	err      error
}

func (d *memoryDownloader) Download(filename string, data []byte) error {
	d.calls++
	d.filename = filename
	d.data = data
	return d.err
}

// parseService is a scripted stand-in for the remote parsing endpoint. It
// rejects tokens outside accept and replies with the configured SSE frames.
// With hold set, the stream stays open after the frames until the client
// cancels.
type parseService struct {
	mu     sync.Mutex
	accept map[string]bool
	frames []string
	hold   bool
	tokens []string
}

func (s *parseService) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("Authorization")
		s.mu.Lock()
		s.tokens = append(s.tokens, token)
		ok := s.accept[token]
		s.mu.Unlock()
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher, canFlush := w.(http.Flusher)
		require.True(t, canFlush)
		for _, frame := range s.frames {
			_, _ = w.Write([]byte(frame))
			flusher.Flush()
		}
		if s.hold {
			<-r.Context().Done()
		}
	}
}

func progressFrame(step, message string, percent int) string {
	return fmt.Sprintf("event: progress\ndata: {\"step\":%q,\"message\":%q,\"percent\":%d}\n\n", step, message, percent)
}

func completeFrame(data string) string {
	payload, _ := json.Marshal(map[string]any{
		"success":    true,
		"data":       json.RawMessage(data),
		"model_used": "gemini-1.5",
	})
	return "event: complete\ndata: " + string(payload) + "\n\n"
}

// harness bundles a transformer with its scripted collaborators. Published
// states are collected under a mutex so tests may drive Transform and Reset
// from different goroutines.
type harness struct {
	transformer *Transformer
	downloads   *memoryDownloader
	service     *parseService
	logouts     *int

	mu     sync.Mutex
	states []State
}

func (h *harness) snapshot() []State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]State(nil), h.states...)
}

type harnessOptions struct {
	frames       []string
	acceptTokens []string
	refreshOK    bool
	hold         bool
	logo         LogoFetcher
}

func newHarness(t *testing.T, opts harnessOptions) *harness {
	t.Helper()

	service := &parseService{accept: map[string]bool{}, frames: opts.frames, hold: opts.hold}
	for _, token := range opts.acceptTokens {
		service.accept["Bearer "+token] = true
	}
	parseSrv := httptest.NewServer(service.handler(t))
	t.Cleanup(parseSrv.Close)

	refreshSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !opts.refreshOK {
			http.Error(w, "refresh denied", http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(types.TokenPair{AccessToken: "fresh", RefreshToken: "fresh-r"})
	}))
	t.Cleanup(refreshSrv.Close)

	logouts := 0
	session := auth.NewSession(
		types.TokenPair{AccessToken: "initial", RefreshToken: "initial-r"},
		refreshSrv.URL, nil, func() { logouts++ },
	)

	downloads := &memoryDownloader{}
	h := &harness{
		downloads: downloads,
		service:   service,
		logouts:   &logouts,
	}

	transformer, err := New(Options{
		Parser:     parsing.NewClient(parseSrv.URL, nil),
		Session:    session,
		Registry:   templates.Builtin(),
		Downloader: downloads,
		Logo:       opts.logo,
		Clock:      &fakeClock{now: time.Unix(1700000000, 0), step: time.Second},
		Logger:     zerolog.Nop(),
		OnState: func(s State) {
			h.mu.Lock()
			h.states = append(h.states, s)
			h.mu.Unlock()
		},
	})
	require.NoError(t, err)

	h.transformer = transformer
	return h
}

func steps(states []State) []Step {
	out := make([]Step, 0, len(states))
	for _, s := range states {
		if len(out) == 0 || out[len(out)-1] != s.Step {
			out = append(out, s.Step)
		}
	}
	return out
}

func TestTransform_EndToEnd(t *testing.T) {
	h := newHarness(t, harnessOptions{
		frames: []string{
			progressFrame("extracting", "Extraction du texte", 10),
			progressFrame("ai_parsing", "Analyse IA", 60),
			completeFrame(sampleCV),
		},
		acceptTokens: []string{"initial"},
	})

	err := h.transformer.Transform(context.Background(), "cv.pdf", []byte("%PDF fake"), "gemini")
	require.NoError(t, err)

	assert.Equal(t, "cv_gemini.docx", h.downloads.filename)
	assert.NotEmpty(t, h.downloads.data)
	assert.Equal(t, 1, h.downloads.calls)
	assert.Zero(t, *h.logouts)

	final := h.transformer.State()
	assert.Equal(t, StepDone, final.Step)
	assert.Equal(t, 100, final.Percent)

	assert.Equal(t,
		[]Step{StepUploading, StepExtracting, StepAIParsing, StepValidating, StepGenerating, StepDone},
		steps(h.snapshot()))
}

func TestTransform_ProgressOrderAndMonotonicPercent(t *testing.T) {
	h := newHarness(t, harnessOptions{
		frames: []string{
			progressFrame("extracting", "a", 30),
			progressFrame("extracting", "b", 20), // regression must be ignored
			progressFrame("ai_parsing", "c", 99), // above the local validating/generating stamps
			completeFrame(sampleCV),
		},
		acceptTokens: []string{"initial"},
	})

	require.NoError(t, h.transformer.Transform(context.Background(), "cv.pdf", []byte("x"), "gemini"))

	states := h.snapshot()
	var percents []int
	for _, s := range states {
		percents = append(percents, s.Percent)
	}
	for i := 1; i < len(percents); i++ {
		assert.GreaterOrEqual(t, percents[i], percents[i-1], "percent must never regress")
	}
	final := states[len(states)-1]
	assert.Equal(t, StepDone, final.Step)
	assert.Equal(t, 100, final.Percent)
}

func TestTransform_RejectsBadExtensionLocally(t *testing.T) {
	h := newHarness(t, harnessOptions{acceptTokens: []string{"initial"}})

	err := h.transformer.Transform(context.Background(), "cv.exe", []byte("x"), "gemini")
	require.Error(t, err)

	assert.Equal(t, StepError, h.transformer.State().Step)
	assert.Empty(t, h.service.tokens, "no network call for a locally rejected file")
}

func TestTransform_RejectsOversizedFileLocally(t *testing.T) {
	h := newHarness(t, harnessOptions{acceptTokens: []string{"initial"}})

	err := h.transformer.Transform(context.Background(), "cv.pdf", make([]byte, MaxFileSize+1), "gemini")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "16 MiB")
	assert.Empty(t, h.service.tokens)
}

func TestTransform_UnknownTemplate(t *testing.T) {
	h := newHarness(t, harnessOptions{acceptTokens: []string{"initial"}})

	err := h.transformer.Transform(context.Background(), "cv.pdf", []byte("x"), "neon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown template")
	assert.Empty(t, h.service.tokens)
}

func TestTransform_AuthRetrySucceeds(t *testing.T) {
	h := newHarness(t, harnessOptions{
		frames: []string{
			progressFrame("extracting", "x", 10),
			completeFrame(sampleCV),
		},
		acceptTokens: []string{"fresh"}, // the initial token is stale
		refreshOK:    true,
	})

	err := h.transformer.Transform(context.Background(), "cv.pdf", []byte("x"), "gemini")
	require.NoError(t, err)

	assert.Equal(t, StepDone, h.transformer.State().Step)
	assert.Equal(t, []string{"Bearer initial", "Bearer fresh"}, h.service.tokens)
	assert.Zero(t, *h.logouts, "a successful retry must not log out")
	assert.Equal(t, "cv_gemini.docx", h.downloads.filename)
}

func TestTransform_RefreshFailureLogsOutOnce(t *testing.T) {
	h := newHarness(t, harnessOptions{
		acceptTokens: []string{"nobody"},
		refreshOK:    false,
	})

	err := h.transformer.Transform(context.Background(), "cv.pdf", []byte("x"), "gemini")
	require.Error(t, err)

	assert.Contains(t, err.Error(), "session expired")
	assert.Equal(t, StepError, h.transformer.State().Step)
	assert.Equal(t, 1, *h.logouts)
	assert.Equal(t, []string{"Bearer initial"}, h.service.tokens, "no retry after a failed refresh")
}

func TestTransform_RetriedRequestFailureLogsOutOnce(t *testing.T) {
	h := newHarness(t, harnessOptions{
		acceptTokens: []string{}, // even the refreshed token is rejected
		refreshOK:    true,
	})

	err := h.transformer.Transform(context.Background(), "cv.pdf", []byte("x"), "gemini")
	require.Error(t, err)

	assert.Contains(t, err.Error(), "session expired")
	assert.Equal(t, 1, *h.logouts)
	assert.Equal(t, []string{"Bearer initial", "Bearer fresh"}, h.service.tokens, "exactly one retry")
}

func TestTransform_ValidationFailureSummarizesFirstThree(t *testing.T) {
	// Four violations: unknown type, two bad levels, missing title.
	bad := `{
		"header": {"title": "T", "experienceSummary": "S"},
		"sections": [
			{"id": "a", "content": [
				{"type": "nope"},
				{"type": "bullet", "text": "x", "level": 7},
				{"type": "bullet", "text": "y", "level": 8}
			]}
		]
	}`
	h := newHarness(t, harnessOptions{
		frames:       []string{completeFrame(bad)},
		acceptTokens: []string{"initial"},
	})

	err := h.transformer.Transform(context.Background(), "cv.pdf", []byte("x"), "gemini")
	require.Error(t, err)

	state := h.transformer.State()
	assert.Equal(t, StepError, state.Step)
	// Semicolon-joined, capped at three entries.
	assert.LessOrEqual(t, len(splitSemicolons(state.Err)), 3)
	assert.Zero(t, h.downloads.calls, "no rendering after a validation failure")
}

func splitSemicolons(s string) []string {
	var parts []string
	for _, p := range bytes.Split([]byte(s), []byte("; ")) {
		parts = append(parts, string(p))
	}
	return parts
}

func TestTransform_ServerErrorEvent(t *testing.T) {
	h := newHarness(t, harnessOptions{
		frames: []string{
			progressFrame("extracting", "x", 10),
			"event: error\ndata: {\"message\":\"document illisible\"}\n\n",
		},
		acceptTokens: []string{"initial"},
	})

	err := h.transformer.Transform(context.Background(), "cv.pdf", []byte("x"), "gemini")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document illisible")
	assert.Equal(t, StepError, h.transformer.State().Step)
}

func TestTransform_MissingTerminalEvent(t *testing.T) {
	h := newHarness(t, harnessOptions{
		frames:       []string{progressFrame("extracting", "x", 10)},
		acceptTokens: []string{"initial"},
	})

	err := h.transformer.Transform(context.Background(), "cv.pdf", []byte("x"), "gemini")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without a completion event")
}

func TestTransform_MalformedFrameIsSkipped(t *testing.T) {
	h := newHarness(t, harnessOptions{
		frames: []string{
			progressFrame("extracting", "x", 10),
			"this frame is garbage\n\n",
			completeFrame(sampleCV),
		},
		acceptTokens: []string{"initial"},
	})

	err := h.transformer.Transform(context.Background(), "cv.pdf", []byte("x"), "gemini")
	require.NoError(t, err, "a corrupt frame must not abort the stream")
	assert.Equal(t, StepDone, h.transformer.State().Step)
}

func TestTransform_LogoFetchFailureIsNonFatal(t *testing.T) {
	h := newHarness(t, harnessOptions{
		frames:       []string{completeFrame(sampleCV)},
		acceptTokens: []string{"initial"},
		logo: func(ctx context.Context) ([]byte, error) {
			return nil, errors.New("asset host unreachable")
		},
	})

	err := h.transformer.Transform(context.Background(), "cv.pdf", []byte("x"), "gemini")
	require.NoError(t, err)
	assert.Equal(t, StepDone, h.transformer.State().Step)
	assert.NotEmpty(t, h.downloads.data)
}

func TestTransform_DownloadFailure(t *testing.T) {
	h := newHarness(t, harnessOptions{
		frames:       []string{completeFrame(sampleCV)},
		acceptTokens: []string{"initial"},
	})
	h.downloads.err = errors.New("disk full")

	err := h.transformer.Transform(context.Background(), "cv.pdf", []byte("x"), "gemini")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "download failed")
}

func TestTransform_ElapsedIsDeterministic(t *testing.T) {
	h := newHarness(t, harnessOptions{
		frames:       []string{completeFrame(sampleCV)},
		acceptTokens: []string{"initial"},
	})

	require.NoError(t, h.transformer.Transform(context.Background(), "cv.pdf", []byte("x"), "gemini"))

	// The fake clock steps one second per read, so every published state
	// carries a well-formed, non-decreasing elapsed stamp.
	for _, s := range h.snapshot() {
		assert.Regexp(t, `^(\d+s|\d+m \d{2}s)$`, s.Elapsed)
	}
}

func TestReset_DuringInFlightAttemptStaysIdle(t *testing.T) {
	h := newHarness(t, harnessOptions{
		frames:       []string{progressFrame("extracting", "x", 10)},
		acceptTokens: []string{"initial"},
		hold:         true, // server keeps the stream open until the client cancels
	})

	done := make(chan error, 1)
	go func() {
		done <- h.transformer.Transform(context.Background(), "cv.pdf", []byte("x"), "gemini")
	}()

	require.Eventually(t, func() bool {
		return h.transformer.State().Step == StepExtracting
	}, 2*time.Second, 5*time.Millisecond)

	h.transformer.Reset()

	select {
	case err := <-done:
		require.Error(t, err, "the cancelled attempt still reports its failure to the caller")
	case <-time.After(2 * time.Second):
		t.Fatal("transform did not return after reset")
	}

	state := h.transformer.State()
	assert.Equal(t, StepIdle, state.Step, "the dying attempt must not overwrite the reset")
	assert.Empty(t, state.Err)
	assert.Zero(t, state.Percent)

	for _, s := range h.snapshot() {
		assert.NotEqual(t, StepError, s.Step, "no error state may be published after a reset")
	}
}

func TestReset_ReturnsToIdle(t *testing.T) {
	h := newHarness(t, harnessOptions{
		frames:       []string{completeFrame(sampleCV)},
		acceptTokens: []string{"initial"},
	})

	require.NoError(t, h.transformer.Transform(context.Background(), "cv.pdf", []byte("x"), "gemini"))
	require.Equal(t, StepDone, h.transformer.State().Step)

	h.transformer.Reset()
	state := h.transformer.State()
	assert.Equal(t, StepIdle, state.Step)
	assert.Empty(t, state.Filename)
	assert.Empty(t, state.Err)
	assert.Zero(t, state.Percent)
}

func TestOutputFilename(t *testing.T) {
	assert.Equal(t, "cv_gemini.docx", outputFilename("cv.pdf", "gemini"))
	assert.Equal(t, "jean.dupont_slate.docx", outputFilename("jean.dupont.docx", "slate"))
	assert.Equal(t, "resume_gemini.docx", outputFilename("resume", "gemini"))
}

func TestCheckFile(t *testing.T) {
	assert.NoError(t, CheckFile("cv.pdf", 1024))
	assert.NoError(t, CheckFile("CV.DOCX", MaxFileSize))
	assert.Error(t, CheckFile("cv.txt", 1024))
	assert.Error(t, CheckFile("cv.pdf", 0))
	assert.Error(t, CheckFile("cv.pdf", MaxFileSize+1))
}
