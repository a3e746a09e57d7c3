package viewer

import (
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// Capture writes screen frames to PNG files in Dir, on demand or every Interval.
type Capture struct {
	Dir      string
	Interval time.Duration

	last time.Time
	wg   sync.WaitGroup
}

// Due reports whether an interval capture should happen at now, and if so records it.
func (c *Capture) Due(now time.Time) bool {
	if c.Dir == "" || c.Interval <= 0 {
		return false
	}
	if !c.last.IsZero() && now.Sub(c.last) < c.Interval {
		return false
	}
	c.last = now
	return true
}

// FileName is the capture file name for a frame taken at ts.
func FileName(ts time.Time, suffix string) string {
	return fmt.Sprintf("globe-%s-%s.png", ts.Format("20060102-150405"), suffix)
}

// Frame copies img off the GPU and encodes it on a separate goroutine.
func (c *Capture) Frame(img *ebiten.Image, suffix string, ts time.Time) {
	if c.Dir == "" {
		return
	}
	rgba := image.NewRGBA(img.Bounds())
	img.ReadPixels(rgba.Pix)
	c.Save(rgba, suffix, ts)
}

// Save encodes img into Dir asynchronously. Wait blocks until pending saves finish.
func (c *Capture) Save(img image.Image, suffix string, ts time.Time) {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		log.Printf("[CAPTURE] Error creating capture directory: %v", err)
		return
	}
	path := filepath.Join(c.Dir, FileName(ts, suffix))
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := SavePNG(path, img); err != nil {
			log.Printf("[CAPTURE] %v", err)
			return
		}
		log.Printf("[CAPTURE] Captured frame: %s", path)
	}()
}

func (c *Capture) Wait() { c.wg.Wait() }

// SavePNG writes img to path.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating capture file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encoding capture: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing capture file: %w", err)
	}
	return nil
}
