package render

import (
	"image/color"
	"strings"
)

const LoadingText = "Loading Earth texture..."

var (
	ClearColor     = color.RGBA{0, 0, 0x11, 255}
	headlineWhite  = color.RGBA{255, 255, 255, 255}
	headlinePurple = color.RGBA{0xc0, 0x84, 0xfc, 255}
	headlineGreen  = color.RGBA{0x4a, 0xde, 0x80, 255}
	panelColor     = color.RGBA{0, 0, 0, 128}
	scrimColor     = color.RGBA{0, 0, 0, 178}
)

// Segment is a run of headline text in one colour.
type Segment struct {
	Text  string
	Color color.RGBA
}

// Headline returns the hero tagline for city, split into coloured runs.
func Headline(city string) []Segment {
	return []Segment{
		{"Make Your Payment ", headlineWhite},
		{"Faster", headlinePurple},
		{" At Any ", headlineWhite},
		{"Location ", headlinePurple},
		{"(" + city + ")", headlineGreen},
	}
}

// HeadlineText is the headline as plain text.
func HeadlineText(city string) string {
	var b strings.Builder
	for _, s := range Headline(city) {
		b.WriteString(s.Text)
	}
	return b.String()
}
