package recorder

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"
)

// State represents the current state of the recording loop.
type State int

const (
	StateIdle State = iota
	StateRecording
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	default:
		return "unknown"
	}
}

// DefaultSegmentInterval matches the browser client's fixed slicing of
// captured audio into ~10-second segments.
const DefaultSegmentInterval = 10 * time.Second

const uploadTimeout = 60 * time.Second

// Recorder drains an audio source while recording and slices the
// captured bytes into fixed-interval segments. Each segment is uploaded
// asynchronously; upload failures are logged and never surface to the
// recording loop.
type Recorder struct {
	client   *Client
	roomID   string
	mimeType string
	interval time.Duration

	mu     sync.Mutex
	state  State
	buf    []byte
	source io.ReadCloser
	cancel context.CancelFunc
	done   chan struct{}

	loops   sync.WaitGroup
	uploads sync.WaitGroup
}

func New(client *Client, roomID, mimeType string, interval time.Duration) *Recorder {
	if interval <= 0 {
		interval = DefaultSegmentInterval
	}
	return &Recorder{
		client:   client,
		roomID:   roomID,
		mimeType: mimeType,
		interval: interval,
		state:    StateIdle,
	}
}

func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start begins capturing from source. It fails if a recording is
// already in progress.
func (r *Recorder) Start(source io.ReadCloser) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateRecording {
		return fmt.Errorf("recorder is already recording")
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.source = source
	r.buf = nil
	r.done = make(chan struct{})
	r.state = StateRecording

	r.loops.Add(2)
	go r.captureLoop(ctx, source, r.done)
	go r.segmentLoop(ctx, r.done)
	return nil
}

// Done is closed once the audio source has been fully drained.
func (r *Recorder) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

// Stop halts segment slicing, releases the audio source, uploads any
// remaining buffered audio, and returns the recorder to idle. It is
// safe to call when already idle.
func (r *Recorder) Stop() {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return
	}
	cancel := r.cancel
	source := r.source
	r.mu.Unlock()

	cancel()
	if err := source.Close(); err != nil {
		log.Printf("Error closing audio source: %v", err)
	}
	r.loops.Wait()

	// Final partial segment, like the browser recorder emitting its
	// last chunk on stop.
	r.flushSegment()

	r.mu.Lock()
	r.state = StateIdle
	r.source = nil
	r.cancel = nil
	r.mu.Unlock()
}

// WaitUploads blocks until all in-flight segment uploads complete.
func (r *Recorder) WaitUploads() {
	r.uploads.Wait()
}

func (r *Recorder) captureLoop(ctx context.Context, source io.Reader, done chan struct{}) {
	defer r.loops.Done()
	defer close(done)

	chunk := make([]byte, 32*1024)
	for {
		n, err := source.Read(chunk)
		if n > 0 {
			r.mu.Lock()
			r.buf = append(r.buf, chunk[:n]...)
			r.mu.Unlock()
		}
		if err != nil {
			if err != io.EOF && ctx.Err() == nil {
				log.Printf("Audio source read failed: %v", err)
			}
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (r *Recorder) segmentLoop(ctx context.Context, done chan struct{}) {
	defer r.loops.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.flushSegment()
		case <-done:
			// Source drained; flush whatever is left.
			r.flushSegment()
			return
		case <-ctx.Done():
			return
		}
	}
}

// flushSegment cuts the current buffer into a segment and uploads it in
// the background. Empty segments are skipped.
func (r *Recorder) flushSegment() {
	r.mu.Lock()
	segment := r.buf
	r.buf = nil
	r.mu.Unlock()

	if len(segment) == 0 {
		return
	}

	r.uploads.Add(1)
	go func() {
		defer r.uploads.Done()
		ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
		defer cancel()
		if err := r.client.UploadSegment(ctx, r.roomID, segment, r.mimeType); err != nil {
			log.Printf("Failed to upload audio segment (%d bytes): %v", len(segment), err)
		}
	}()
}
