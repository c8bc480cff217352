// Package stream reconstructs an assistant reply from a chunked
// server-sent event stream. It yields patient-safe display text on every
// fragment and, once the reply is complete, at most one structured outcome
// extracted from embedded sentinel blocks.
package stream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const (
	dataPrefix = "data: "
	doneToken  = "[DONE]"
)

// envelope is the event shape the chat endpoint streams. Only the first
// choice's delta content is consumed.
type envelope struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Assembler accumulates transport chunks and parses them line by line.
// Chunk boundaries carry no meaning: a partial line (or a partial UTF-8
// sequence — a newline byte never occurs inside one) stays in the
// carry-over buffer until later bytes complete it.
type Assembler struct {
	carry     []byte
	raw       strings.Builder
	done      bool
	onDisplay func(string)
	logger    *slog.Logger
}

// NewAssembler returns an assembler for one assistant turn. onDisplay, if
// non-nil, is called with the cleaned running text after every fragment.
func NewAssembler(onDisplay func(string), logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{onDisplay: onDisplay, logger: logger}
}

// Feed appends one transport chunk and processes every complete line in
// the buffer. After the [DONE] token further chunks are drained and
// ignored; a well-behaved producer closes the connection shortly after.
func (a *Assembler) Feed(chunk []byte) {
	if a.done {
		return
	}
	a.carry = append(a.carry, chunk...)

	for {
		i := bytes.IndexByte(a.carry, '\n')
		if i < 0 {
			return
		}
		line := strings.TrimSuffix(string(a.carry[:i]), "\r")
		rest := a.carry[i+1:]

		if line == "" || strings.HasPrefix(line, ":") {
			a.carry = rest
			continue
		}
		if !strings.HasPrefix(line, dataPrefix) {
			a.carry = rest
			continue
		}

		payload := strings.TrimSpace(line[len(dataPrefix):])
		if payload == doneToken {
			a.done = true
			a.carry = nil
			return
		}

		var ev envelope
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			// A newline inside streamed JSON content can split one logical
			// event across "lines". Restore the line and wait for more
			// bytes instead of processing past it.
			return
		}
		a.carry = rest

		if len(ev.Choices) == 0 {
			continue
		}
		if frag := ev.Choices[0].Delta.Content; frag != "" {
			a.raw.WriteString(frag)
			if a.onDisplay != nil {
				a.onDisplay(CleanDisplay(a.raw.String()))
			}
		}
	}
}

// Consume reads r to exhaustion, feeding every chunk. A read error
// discards the carry-over buffer and is reported as-is; no outcome is
// synthesized from a broken stream.
func (a *Assembler) Consume(r io.Reader) error {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			a.Feed(buf[:n])
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			a.carry = nil
			return fmt.Errorf("read stream: %w", err)
		}
	}
}

// Done reports whether the [DONE] token has been seen.
func (a *Assembler) Done() bool {
	return a.done
}

// Finish returns the cleaned display text and any structured outcome from
// the full reply. An unterminated data line still in the buffer at end of
// stream is dropped; that is accepted data loss, surfaced as a warning.
func (a *Assembler) Finish() (string, Outcome) {
	if len(a.carry) > 0 {
		a.logger.Warn("discarding unterminated stream data", "bytes", len(a.carry))
		a.carry = nil
	}
	raw := a.raw.String()
	return CleanDisplay(raw), ExtractOutcome(raw)
}
