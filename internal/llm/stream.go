package llm

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"sync"
)

// Stream is a lazy, finite, non-restartable sequence of generation
// chunks decoded from the backend's newline-delimited JSON body. The
// caller drives iteration with Recv; the underlying transport resource
// is released exactly once, on the terminal Recv or on Close, whichever
// comes first.
type Stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner

	mu       sync.Mutex
	finished bool
	closeFn  sync.Once
}

func newStream(body io.ReadCloser) *Stream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Stream{body: body, scanner: scanner}
}

type generateFrame struct {
	Response  string `json:"response"`
	Done      bool   `json:"done"`
	EvalCount int    `json:"eval_count"`
}

// Recv returns the next chunk. The final chunk carries Done=true; every
// call after that returns io.EOF. Frames that are not valid JSON are
// skipped.
func (s *Stream) Recv() (Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		return Chunk{}, io.EOF
	}

	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var frame generateFrame
		if err := json.Unmarshal(line, &frame); err != nil {
			continue
		}
		if frame.Done {
			s.finish()
			return Chunk{Chunk: frame.Response, Done: true, TokensUsed: frame.EvalCount}, nil
		}
		if frame.Response != "" {
			return Chunk{Chunk: frame.Response, TokensUsed: frame.EvalCount}, nil
		}
	}

	err := s.scanner.Err()
	s.finish()
	if err != nil {
		return Chunk{}, err
	}
	// Body ended without an explicit done frame; synthesize the terminal
	// marker so consumers always observe one.
	return Chunk{Done: true}, nil
}

// Close releases the transport resource. Safe to call multiple times and
// concurrently with an abandoned iteration.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finish()
	return nil
}

// finish marks the stream terminal and closes the body exactly once.
// Callers must hold s.mu.
func (s *Stream) finish() {
	s.finished = true
	s.closeFn.Do(func() { s.body.Close() })
}
