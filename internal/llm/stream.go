package llm

import (
	"context"
	"strings"
	"sync"

	"github.com/ashkaaar/griptape/internal/artifact"
)

// StreamChunk represents a piece of a streaming response.
type StreamChunk struct {
	Text  string // Text content in this chunk
	Done  bool   // True if this is the final chunk
	Error error  // Error if streaming failed
}

// StreamReader hands streamed chunks from a driver goroutine to the caller.
type StreamReader struct {
	chunks  chan StreamChunk
	done    chan struct{}
	current StreamChunk
	once    sync.Once
}

// NewStreamReader creates a new stream reader.
func NewStreamReader() *StreamReader {
	return &StreamReader{
		chunks: make(chan StreamChunk, 100),
		done:   make(chan struct{}),
	}
}

// Send delivers a chunk. It returns false if the reader was closed or ctx
// ended before the chunk could be queued.
func (sr *StreamReader) Send(ctx context.Context, chunk StreamChunk) bool {
	select {
	case <-sr.done:
		return false
	default:
	}

	select {
	case sr.chunks <- chunk:
		return true
	case <-sr.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// Close ends the stream. Only the producing goroutine should call it.
func (sr *StreamReader) Close() {
	sr.once.Do(func() {
		close(sr.done)
		close(sr.chunks)
	})
}

// Next advances to the next chunk. Returns false when the stream is exhausted.
func (sr *StreamReader) Next() bool {
	chunk, ok := <-sr.chunks
	if !ok {
		return false
	}
	sr.current = chunk
	return true
}

// Current returns the current chunk. Call after Next() returns true.
func (sr *StreamReader) Current() StreamChunk {
	return sr.current
}

// Err returns any error from the current chunk.
func (sr *StreamReader) Err() error {
	return sr.current.Error
}

// Collect drains the stream into a single text artifact. The callback, if
// not nil, sees every chunk. The last chunk error (if any) is returned along
// with whatever text was received.
func (sr *StreamReader) Collect(callback func(StreamChunk)) (*artifact.Text, error) {
	var builder strings.Builder
	var lastErr error

	for sr.Next() {
		chunk := sr.Current()
		if callback != nil {
			callback(chunk)
		}
		if chunk.Error != nil {
			lastErr = chunk.Error
			continue
		}
		builder.WriteString(chunk.Text)
		if chunk.Done {
			break
		}
	}

	return artifact.NewText(builder.String()), lastErr
}
