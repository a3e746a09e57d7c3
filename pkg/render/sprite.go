// Package render draws globe frames: on the GPU through ebiten, into a plain image in
// software, or onto a terminal through tcell.
package render

import (
	"fmt"
	"image"
	"math"
)

const (
	starSpriteSize = 32
	alphaTest      = 0.1
)

// NewStarSprite builds the soft round mask used for starfield points: a white disc whose
// alpha falls from 1 at the centre through 0.8 halfway out to 0 at the rim. Pixels below
// the alpha test are cleared.
func NewStarSprite(size int) (*image.RGBA, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid sprite size %d", size)
	}
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	center, maxDist := float64(size)/2.0, float64(size)/2.0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)+0.5-center, float64(y)+0.5-center
			t := math.Sqrt(dx*dx+dy*dy) / maxDist
			a := gradientAlpha(t)
			if a < alphaTest {
				continue
			}
			// Premultiplied white.
			v := uint8(math.Round(a * 255))
			off := img.PixOffset(x, y)
			img.Pix[off], img.Pix[off+1], img.Pix[off+2], img.Pix[off+3] = v, v, v, v
		}
	}
	return img, nil
}

func gradientAlpha(t float64) float64 {
	switch {
	case t >= 1:
		return 0
	case t <= 0:
		return 1
	case t < 0.5:
		return 1 - 0.2*(t/0.5)
	default:
		return 0.8 * (1 - (t-0.5)/0.5)
	}
}
