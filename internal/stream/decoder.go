// Package stream provides an incremental decoder for the SSE-style progress
// stream emitted by the parsing service. The decoder is a plain
// buffer-and-split state machine with no HTTP dependency, so it can be fed
// arbitrary byte chunks (including chunks that split an event or the message
// delimiter) and unit-tested without a network socket.
package stream

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Event names emitted by the parsing service.
const (
	EventProgress = "progress"
	EventComplete = "complete"
	EventError    = "error"
)

// ProgressPayload reports one remote processing step.
type ProgressPayload struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	Percent int    `json:"percent"`
}

// CompletePayload is the terminal event carrying the parsed document.
type CompletePayload struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	ModelUsed string          `json:"model_used"`
}

// ErrorPayload is a server-side failure notification.
type ErrorPayload struct {
	Message string `json:"message"`
}

// Event is one decoded message: its name and the raw JSON data line.
type Event struct {
	Name string
	Data json.RawMessage
}

// Handler receives decoded events in arrival order.
type Handler func(Event)

// Decoder reconstructs events from a chunked byte stream. Messages are
// delimited by a blank line; a trailing partial message is retained across
// Write calls until its delimiter arrives. A malformed message is skipped
// without aborting the stream.
type Decoder struct {
	buf     bytes.Buffer
	handler Handler
	skipped int
}

// NewDecoder creates a decoder dispatching complete events to handler.
func NewDecoder(handler Handler) *Decoder {
	return &Decoder{handler: handler}
}

// Write feeds a chunk of the response body into the decoder. It never
// returns an error; it implements io.Writer so the stream can be piped in.
func (d *Decoder) Write(p []byte) (int, error) {
	d.buf.Write(p)
	for {
		raw := d.buf.Bytes()
		idx, width := delimiterIndex(raw)
		if idx < 0 {
			return len(p), nil
		}
		message := string(raw[:idx])
		d.buf.Next(idx + width)
		d.dispatch(message)
	}
}

// delimiterIndex locates the earliest blank-line delimiter, LF-LF or
// CRLF-CRLF, returning its position and width.
func delimiterIndex(raw []byte) (int, int) {
	lf := bytes.Index(raw, []byte("\n\n"))
	crlf := bytes.Index(raw, []byte("\r\n\r\n"))
	switch {
	case lf < 0:
		return crlf, 4
	case crlf < 0 || lf < crlf:
		return lf, 2
	default:
		return crlf, 4
	}
}

// Flush processes any final message not followed by a delimiter. Call after
// the stream body is exhausted.
func (d *Decoder) Flush() {
	if d.buf.Len() == 0 {
		return
	}
	message := d.buf.String()
	d.buf.Reset()
	d.dispatch(message)
}

// Skipped reports how many malformed messages were dropped.
func (d *Decoder) Skipped() int {
	return d.skipped
}

// dispatch parses one complete message into an event. Messages must carry an
// "event:" line and a "data:" line holding valid JSON; anything else is
// counted as skipped.
func (d *Decoder) dispatch(message string) {
	message = strings.TrimRight(message, "\r\n")
	if strings.TrimSpace(message) == "" {
		return
	}

	var name, data string
	for _, line := range strings.Split(message, "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}

	if name == "" || !json.Valid([]byte(data)) {
		d.skipped++
		return
	}

	d.handler(Event{Name: name, Data: json.RawMessage(data)})
}
