// Package transform provides the orchestrator driving one CV transformation
// end to end: local file checks, upload to the parsing service, consumption
// of its live progress stream, schema validation, rendering and the download
// side effect. All failures are converted into the error state; nothing
// escapes the orchestrator boundary.
package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bobbyapp/cv-transformer/internal/auth"
	"github.com/bobbyapp/cv-transformer/internal/observability"
	"github.com/bobbyapp/cv-transformer/internal/parsing"
	"github.com/bobbyapp/cv-transformer/internal/rendering"
	"github.com/bobbyapp/cv-transformer/internal/schemas"
	"github.com/bobbyapp/cv-transformer/internal/stream"
	"github.com/bobbyapp/cv-transformer/internal/templates"
)

// sessionExpiredMessage is surfaced when the refresh-and-retry path fails.
const sessionExpiredMessage = "session expired, please sign in again"

// validationSummaryLimit caps the violations shown in the user-facing
// message; the full list is always logged.
const validationSummaryLimit = 3

// Downloader receives the finished binary. In the CLI it writes to disk; a
// browser front end would trigger a save prompt.
type Downloader interface {
	Download(filename string, data []byte) error
}

// LogoFetcher loads the template logo asset. A fetch failure is non-fatal:
// the document renders without a logo.
type LogoFetcher func(ctx context.Context) ([]byte, error)

// Options wires the orchestrator's collaborators. Parser, Session, Registry
// and Downloader are required.
type Options struct {
	Parser     *parsing.Client
	Session    *auth.Session
	Registry   *templates.Registry
	Downloader Downloader
	Logo       LogoFetcher
	Clock      Clock
	Logger     zerolog.Logger
	OnState    func(State)
}

// Transformer runs transformation attempts one at a time.
type Transformer struct {
	parser     *parsing.Client
	session    *auth.Session
	registry   *templates.Registry
	downloader Downloader
	logo       LogoFetcher
	clock      Clock
	log        zerolog.Logger
	onState    func(State)

	mu        sync.Mutex
	state     State
	cancel    context.CancelFunc
	startedAt int64 // unix nanos of the running attempt
}

// New creates a Transformer. Missing required collaborators are an error.
func New(opts Options) (*Transformer, error) {
	if opts.Parser == nil {
		return nil, fmt.Errorf("parser client is required")
	}
	if opts.Session == nil {
		return nil, fmt.Errorf("auth session is required")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("template registry is required")
	}
	if opts.Downloader == nil {
		return nil, fmt.Errorf("downloader is required")
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	return &Transformer{
		parser:     opts.Parser,
		session:    opts.Session,
		registry:   opts.Registry,
		downloader: opts.Downloader,
		logo:       opts.Logo,
		clock:      opts.Clock,
		log:        opts.Logger,
		onState:    opts.OnState,
		state:      State{Step: StepIdle},
	}, nil
}

// State returns the current snapshot.
func (t *Transformer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Reset returns the machine to idle, clearing the selected file, error and
// progress. An in-flight streamed request is cancelled rather than left
// running detached, and any state the dying attempt still tries to publish
// is dropped.
func (t *Transformer) Reset() {
	t.mu.Lock()
	cancel := t.cancel
	t.cancel = nil
	t.state = State{Step: StepIdle}
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	t.publish()
}

// Transform runs one attempt: filename and data describe the user-selected
// file, templateName picks the visual style. The returned error mirrors the
// error state for CLI callers; it is never a panic or an unhandled internal
// error.
func (t *Transformer) Transform(ctx context.Context, filename string, data []byte, templateName string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	attemptID := uuid.New()
	started := t.clock.Now()

	t.mu.Lock()
	t.cancel = cancel
	t.state = State{AttemptID: attemptID, Step: StepIdle, Filename: filename}
	t.startedAt = started.UnixNano()
	t.mu.Unlock()

	log := t.log.With().Stringer("attempt_id", attemptID).Str("file", filename).Logger()

	// Local gate: no network call for files we already know are bad.
	if err := CheckFile(filename, int64(len(data))); err != nil {
		return t.fail(attemptID, log, err.Error(), err)
	}

	cfg, err := t.registry.Get(templateName)
	if err != nil {
		return t.fail(attemptID, log, err.Error(), err)
	}

	t.setState(attemptID, StepUploading, 0, "Uploading file")

	body, err := t.openStream(ctx, log, filename, data)
	if err != nil {
		return t.fail(attemptID, log, err.Error(), err)
	}
	defer func() { _ = body.Close() }()

	complete, err := t.consumeStream(attemptID, log, body)
	if err != nil {
		return t.fail(attemptID, log, err.Error(), err)
	}

	t.setState(attemptID, StepValidating, 90, "Validating extracted document")
	doc, err := schemas.Validate(complete.Data)
	if err != nil {
		var ve *schemas.ValidationError
		if errors.As(err, &ve) {
			// Users see the first few violations; diagnostics get them all.
			for _, fe := range ve.Errors {
				log.Warn().Str("path", fe.Path).Str("violation", fe.Message).Msg("schema violation")
			}
			return t.fail(attemptID, log, ve.Summary(validationSummaryLimit), err)
		}
		return t.fail(attemptID, log, err.Error(), err)
	}
	log.Info().Int("sections", len(doc.Sections)).Int("nodes", doc.CountNodes()).
		Str("model", complete.ModelUsed).Msg("document validated")

	t.setState(attemptID, StepGenerating, 95, "Generating document")

	var logo []byte
	if t.logo != nil {
		logo, err = t.logo(ctx)
		if err != nil {
			// Missing logo asset is cosmetic, never fatal.
			log.Warn().Err(err).Msg("logo unavailable, rendering without it")
			logo = nil
		}
	}

	binary, err := rendering.Render(doc, cfg, logo)
	if err != nil {
		return t.fail(attemptID, log, err.Error(), err)
	}

	outName := outputFilename(filename, cfg.Name)
	if err := t.downloader.Download(outName, binary); err != nil {
		return t.fail(attemptID, log, fmt.Sprintf("download failed: %v", err), err)
	}

	t.setState(attemptID, StepDone, 100, "Done: "+outName)
	log.Info().Str("output", outName).Int("bytes", len(binary)).Msg("transformation complete")
	return nil
}

// openStream starts the streamed parse request, refreshing the credential
// and retrying exactly once on an authentication failure. When the refresh
// or the retried request fails, the session is abandoned.
func (t *Transformer) openStream(ctx context.Context, log zerolog.Logger, filename string, data []byte) (io.ReadCloser, error) {
	body, err := t.parser.ParseStream(ctx, filename, bytes.NewReader(data), t.session.AccessToken())
	if err == nil {
		return body, nil
	}

	var authErr *parsing.AuthError
	if !errors.As(err, &authErr) {
		return nil, err
	}

	log.Info().Msg("credential rejected, attempting silent refresh")
	if refreshErr := t.session.Refresh(ctx); refreshErr != nil {
		log.Warn().Err(refreshErr).Msg("token refresh failed")
		t.session.Logout()
		return nil, errors.New(sessionExpiredMessage)
	}

	body, err = t.parser.ParseStream(ctx, filename, bytes.NewReader(data), t.session.AccessToken())
	if err != nil {
		log.Warn().Err(err).Msg("retried request failed after refresh")
		t.session.Logout()
		return nil, errors.New(sessionExpiredMessage)
	}
	return body, nil
}

// consumeStream applies progress events in arrival order and returns the
// terminal payload. Malformed individual messages are skipped by the
// decoder; a missing or unusable terminal event is an error.
func (t *Transformer) consumeStream(attemptID uuid.UUID, log zerolog.Logger, body io.Reader) (*stream.CompletePayload, error) {
	var complete *stream.CompletePayload
	var serverErr error

	decoder := stream.NewDecoder(func(e stream.Event) {
		switch e.Name {
		case stream.EventProgress:
			var p stream.ProgressPayload
			if err := json.Unmarshal(e.Data, &p); err != nil {
				return
			}
			t.applyProgress(attemptID, p)
		case stream.EventComplete:
			var c stream.CompletePayload
			if err := json.Unmarshal(e.Data, &c); err != nil {
				return
			}
			complete = &c
		case stream.EventError:
			var p stream.ErrorPayload
			if err := json.Unmarshal(e.Data, &p); err != nil {
				serverErr = errors.New("parsing service reported an error")
				return
			}
			serverErr = fmt.Errorf("parsing service error: %s", p.Message)
		}
	})

	if _, err := io.Copy(decoder, body); err != nil {
		return nil, &parsing.RequestError{Message: "stream interrupted", Cause: err}
	}
	decoder.Flush()

	if skipped := decoder.Skipped(); skipped > 0 {
		log.Warn().Int("skipped", skipped).Msg("malformed stream messages skipped")
	}
	if serverErr != nil {
		return nil, serverErr
	}
	if complete == nil {
		return nil, errors.New("stream ended without a completion event")
	}
	if !complete.Success || len(complete.Data) == 0 {
		return nil, errors.New("parsing completed without a usable document")
	}
	return complete, nil
}

// applyProgress maps one remote progress event onto the step machine.
func (t *Transformer) applyProgress(attemptID uuid.UUID, p stream.ProgressPayload) {
	t.mu.Lock()
	step := t.state.Step
	if mapped, ok := remoteSteps[p.Step]; ok {
		step = mapped
	}
	t.mu.Unlock()

	t.setState(attemptID, step, p.Percent, p.Message)
}

// setState publishes a new snapshot, stamping the elapsed time. Writes from
// an attempt that was reset away are dropped, so a cancelled attempt cannot
// clobber the idle state. Percent never regresses within an attempt.
func (t *Transformer) setState(attemptID uuid.UUID, step Step, percent int, message string) {
	t.mu.Lock()
	if t.state.AttemptID != attemptID {
		t.mu.Unlock()
		return
	}
	if percent < t.state.Percent {
		percent = t.state.Percent
	}
	t.state.Step = step
	t.state.Percent = percent
	t.state.Message = message
	if step != StepError {
		t.state.Err = ""
	}
	t.state.Elapsed = t.elapsedLocked()
	t.mu.Unlock()

	t.publish()
}

// fail converts any internal failure into the error state and returns an
// error carrying the same message. Like setState, it drops the state write
// when the attempt has been reset away; the error still reaches the caller.
func (t *Transformer) fail(attemptID uuid.UUID, log zerolog.Logger, message string, cause error) error {
	log.Error().Err(cause).Msg("transformation failed")

	t.mu.Lock()
	if t.state.AttemptID != attemptID {
		t.mu.Unlock()
		return errors.New(message)
	}
	t.state.Step = StepError
	t.state.Err = message
	t.state.Message = message
	t.state.Elapsed = t.elapsedLocked()
	t.mu.Unlock()

	t.publish()
	return errors.New(message)
}

func (t *Transformer) elapsedLocked() string {
	if t.startedAt == 0 {
		return ""
	}
	started := time.Unix(0, t.startedAt)
	return observability.FormatElapsed(t.clock.Now().Sub(started))
}

func (t *Transformer) publish() {
	if t.onState == nil {
		return
	}
	t.onState(t.State())
}

// outputFilename derives the download name: original stem, template suffix,
// docx extension.
func outputFilename(original, templateName string) string {
	stem := strings.TrimSuffix(original, filepath.Ext(original))
	return fmt.Sprintf("%s_%s.docx", stem, templateName)
}
