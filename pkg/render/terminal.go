package render

import (
	"image/color"

	"github.com/gdamore/tcell/v2"
	"github.com/sudorandom/paygate-globe/pkg/config"
	"github.com/sudorandom/paygate-globe/pkg/globe"
)

// halfBlock paints the top half of a cell in the foreground colour, so each cell
// carries two vertically stacked pixels.
const halfBlock = '▀'

// TerminalSurface draws frames onto a tcell screen. The scene is rendered at one pixel
// per column and two pixels per row, with the last row kept for the status line.
type TerminalSurface struct {
	screen   tcell.Screen
	raster   *Raster
	released bool
}

func NewTerminalSurface(screen tcell.Screen) *TerminalSurface {
	cols, rows := screen.Size()
	w, h := TerminalViewport(cols, rows)
	return &TerminalSurface{screen: screen, raster: NewRaster(w, h)}
}

// TerminalViewport converts a screen size in cells to the pixel viewport the scene
// should be sized to.
func TerminalViewport(cols, rows int) (width, height int) {
	return max(cols, 1), max(rows-1, 1) * 2
}

// Resize sizes the raster. It also reopens a released surface, since a scene resizes
// its surface when it is mounted.
func (s *TerminalSurface) Resize(width, height int) {
	s.released = false
	s.raster.Resize(width, height)
}

func (s *TerminalSurface) Present(f *globe.Frame) {
	if s.released {
		return
	}
	s.raster.Render(f)
	img := s.raster.Image()
	b := img.Bounds()
	cols, rows := s.screen.Size()

	for y := 0; y < rows-1; y++ {
		for x := 0; x < cols; x++ {
			top := ClearColor
			bottom := ClearColor
			if x < b.Dx() && 2*y < b.Dy() {
				top = img.RGBAAt(x, 2*y)
			}
			if x < b.Dx() && 2*y+1 < b.Dy() {
				bottom = img.RGBAAt(x, 2*y+1)
			}
			st := tcell.StyleDefault.Foreground(cellColor(top)).Background(cellColor(bottom))
			s.screen.SetContent(x, y, halfBlock, nil, st)
		}
	}
	if rows > 0 {
		s.status(rows-1, cols, f)
	}
	s.screen.Show()
}

func (s *TerminalSurface) status(row, cols int, f *globe.Frame) {
	bg := tcell.StyleDefault.Background(tcell.ColorBlack)
	for x := 0; x < cols; x++ {
		s.screen.SetContent(x, row, ' ', nil, bg)
	}
	x := 0
	put := func(text string, c color.RGBA) {
		st := bg.Foreground(cellColor(c))
		for _, r := range text {
			if x >= cols {
				return
			}
			s.screen.SetContent(x, row, r, nil, st)
			x++
		}
	}
	if f.Loading {
		put(LoadingText, headlineWhite)
		return
	}
	for _, seg := range Headline(f.Location.Name) {
		put(seg.Text, seg.Color)
	}
	if f.Location.Country != "" {
		put(" · "+config.CountryName(f.Location.Country), color.RGBA{0x9c, 0xa3, 0xaf, 255})
	}
}

// Release stops drawing until the next Resize and blanks the screen. The screen itself
// belongs to the caller.
func (s *TerminalSurface) Release() {
	if s.released {
		return
	}
	s.released = true
	s.screen.Clear()
	s.screen.Show()
}

func cellColor(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
