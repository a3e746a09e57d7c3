package viewer

import (
	"io"
	"log"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
)

// FrameSink streams raw RGBA frames to a writer (usually ffmpeg's stdin) from its own
// goroutine. Buffers are pooled. In dropping mode a frame is skipped when the writer
// falls behind; otherwise Submit blocks.
type FrameSink struct {
	w         io.Writer
	frameSize int
	drop      bool

	pool   sync.Pool
	frames chan []byte
	done   chan struct{}
	once   sync.Once

	written atomic.Int64
	dropped atomic.Int64
	err     error
}

func NewFrameSink(w io.Writer, width, height int, drop bool) *FrameSink {
	size := width * height * 4
	s := &FrameSink{
		w:         w,
		frameSize: size,
		drop:      drop,
		frames:    make(chan []byte, 2),
		done:      make(chan struct{}),
	}
	s.pool.New = func() any { return make([]byte, size) }
	go s.run()
	return s
}

func (s *FrameSink) run() {
	defer close(s.done)
	for buf := range s.frames {
		if s.err == nil {
			if _, err := s.w.Write(buf); err != nil {
				s.err = err
				log.Printf("[RECORDER] Writing frame failed, discarding the rest: %v", err)
			} else {
				s.written.Add(1)
			}
		}
		s.pool.Put(buf)
	}
}

// Buffer returns a frame-sized buffer from the pool for Submit.
func (s *FrameSink) Buffer() []byte { return s.pool.Get().([]byte) }

// Submit queues buf for writing. It reports false if the frame was dropped.
func (s *FrameSink) Submit(buf []byte) bool {
	if !s.drop {
		s.frames <- buf
		return true
	}
	select {
	case s.frames <- buf:
		return true
	default:
		s.pool.Put(buf)
		s.dropped.Add(1)
		return false
	}
}

// Capture reads screen's pixels and submits them. It fits Game.OnFrame.
func (s *FrameSink) Capture(screen *ebiten.Image) {
	buf := s.Buffer()
	if len(buf) != s.frameSize {
		buf = make([]byte, s.frameSize)
	}
	screen.ReadPixels(buf)
	s.Submit(buf)
}

// Close flushes queued frames and returns the first write error.
func (s *FrameSink) Close() error {
	s.once.Do(func() { close(s.frames) })
	<-s.done
	return s.err
}

// Stats returns how many frames were written and dropped.
func (s *FrameSink) Stats() (written, dropped int64) {
	return s.written.Load(), s.dropped.Load()
}
