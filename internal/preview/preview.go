// Package preview rasterizes curves into images for quick visual
// inspection of an animation project without a rendering surface.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"

	xdraw "golang.org/x/image/draw"

	"github.com/ivlev/animkit/internal/animator"
	"github.com/ivlev/animkit/internal/curve"
	"github.com/ivlev/animkit/internal/scene"
	"github.com/ivlev/animkit/internal/system"
)

// Options controls plot appearance.
type Options struct {
	Width      int
	Height     int
	Samples    int // samples across the time range
	Background color.RGBA
	GridColor  color.RGBA
	GridStep   float64 // seconds between vertical grid lines
}

// DefaultOptions returns a 640x360 plot sampled at 512 points.
func DefaultOptions() Options {
	return Options{
		Width:      640,
		Height:     360,
		Samples:    512,
		Background: color.RGBA{24, 24, 28, 255},
		GridColor:  color.RGBA{48, 48, 56, 255},
		GridStep:   1,
	}
}

var plotPalette = []scene.Color{
	scene.Cyan,
	scene.Magenta,
	scene.Yellow,
	scene.Orange,
	scene.White,
}

// RenderCurve plots a single curve over [start, end].
func RenderCurve(c *curve.Curve, start, end float64, opts Options) (*image.RGBA, error) {
	if c == nil {
		return nil, fmt.Errorf("preview: nil curve")
	}
	return render([]plotSeries{{curve: c, color: scene.Cyan}}, start, end, opts)
}

// RenderChannels plots every channel of the interpolator over its full
// time range, one palette color per channel.
func RenderChannels(ip *animator.Interpolator, opts Options) (*image.RGBA, error) {
	if ip == nil {
		return nil, fmt.Errorf("preview: nil interpolator")
	}
	channels := ip.Channels()
	if len(channels) == 0 {
		return nil, fmt.Errorf("preview: interpolator has no channels")
	}

	series := make([]plotSeries, 0, len(channels))
	for i, ch := range channels {
		series = append(series, plotSeries{
			curve: ch.Curve,
			color: plotPalette[i%len(plotPalette)],
		})
	}
	return render(series, 0, ip.Duration(), opts)
}

// WritePNG renders and saves in one step.
func WritePNG(img *image.RGBA, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("preview: encode %s: %w", path, err)
	}
	return nil
}

type plotSeries struct {
	curve *curve.Curve
	color scene.Color
}

// render draws at double resolution and downsamples with a Catmull-Rom
// kernel, which stands in for line anti-aliasing.
func render(series []plotSeries, start, end float64, opts Options) (*image.RGBA, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("preview: invalid size %dx%d", opts.Width, opts.Height)
	}
	if opts.Samples < 2 {
		opts.Samples = 2
	}
	if end <= start {
		end = start + 1
	}

	// Supersample buffers come from the pool: batch preview renders
	// reuse them frame to frame.
	w, h := opts.Width*2, opts.Height*2
	img := system.GetImage(image.Rect(0, 0, w, h))
	defer system.PutImage(img)
	draw.Draw(img, img.Bounds(), &image.Uniform{opts.Background}, image.Point{}, draw.Src)

	drawGrid(img, start, end, opts)

	vmin, vmax := valueRange(series, start, end, opts.Samples)
	for _, s := range series {
		drawSeries(img, s, start, end, vmin, vmax, opts.Samples)
	}

	out := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	xdraw.CatmullRom.Scale(out, out.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return out, nil
}

func drawGrid(img *image.RGBA, start, end float64, opts Options) {
	b := img.Bounds()
	if opts.GridStep <= 0 {
		return
	}
	for t := math.Ceil(start/opts.GridStep) * opts.GridStep; t <= end; t += opts.GridStep {
		x := int((t - start) / (end - start) * float64(b.Dx()-1))
		for y := 0; y < b.Dy(); y++ {
			img.SetRGBA(x, y, opts.GridColor)
		}
	}
	// horizontal center line
	midY := b.Dy() / 2
	for x := 0; x < b.Dx(); x++ {
		img.SetRGBA(x, midY, opts.GridColor)
	}
}

func valueRange(series []plotSeries, start, end float64, samples int) (float64, float64) {
	vmin, vmax := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, v := range s.curve.Sample(start, end, samples) {
			vmin = math.Min(vmin, v)
			vmax = math.Max(vmax, v)
		}
	}
	if math.IsInf(vmin, 1) {
		return 0, 1
	}
	if vmax-vmin < 1e-9 {
		vmin -= 0.5
		vmax += 0.5
	}
	return vmin, vmax
}

func drawSeries(img *image.RGBA, s plotSeries, start, end, vmin, vmax float64, samples int) {
	b := img.Bounds()
	values := s.curve.Sample(start, end, samples)
	col := color.RGBA{
		R: uint8(clamp01(s.color.R) * 255),
		G: uint8(clamp01(s.color.G) * 255),
		B: uint8(clamp01(s.color.B) * 255),
		A: 255,
	}

	// top margin of 5% on each side so extremes stay visible
	toY := func(v float64) int {
		n := (v - vmin) / (vmax - vmin)
		return int((1 - (0.05 + n*0.9)) * float64(b.Dy()-1))
	}

	prevX, prevY := 0, toY(values[0])
	for i := 1; i < len(values); i++ {
		x := int(float64(i) / float64(len(values)-1) * float64(b.Dx()-1))
		y := toY(values[i])
		drawLine(img, prevX, prevY, x, y, col)
		prevX, prevY = x, y
	}

	for _, kf := range s.curve.Keyframes() {
		if kf.Time < start || kf.Time > end {
			continue
		}
		x := int((kf.Time - start) / (end - start) * float64(b.Dx()-1))
		drawMarker(img, x, toY(kf.Value), col)
	}
}

// drawLine is Bresenham's algorithm.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		img.SetRGBA(x0, y0, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func drawMarker(img *image.RGBA, cx, cy int, col color.RGBA) {
	const r = 4
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				img.SetRGBA(cx+dx, cy+dy, col)
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
