// Package imagegen renders the shareable station card: a 1200x630 PNG of
// today's predicted tide curve with high/low markers and the current
// water-level estimate.
package imagegen

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/Keelando/surf-website-front-end-sub000/internal/models"
)

// CardWidth and CardHeight are the standard Open Graph image dimensions.
const (
	CardWidth  = 1200
	CardHeight = 630
)

var (
	cardWhite     = color.RGBA{255, 255, 255, 255}
	cardLightGray = color.RGBA{200, 200, 200, 255}
	cardCurve     = color.RGBA{86, 204, 242, 255}
	cardFill      = color.RGBA{40, 90, 130, 255}
	cardAmber     = color.RGBA{240, 180, 60, 255}
	cardHighMark  = color.RGBA{120, 220, 160, 255}
	cardLowMark   = color.RGBA{235, 130, 120, 255}
)

// CardData is everything the renderer needs for one station's card. Points
// must be sorted ascending and span the [Start, End) window; nil values are
// feed gaps and leave a visible break in the curve.
type CardData struct {
	Station   models.Station
	DateLabel string
	Start     time.Time
	End       time.Time
	Points    []models.Point
	Events    []models.HighLowEvent
	Now       *models.NowEstimate
}

// plotFrame maps times and levels into the card's plot rectangle.
type plotFrame struct {
	rect   image.Rectangle
	start  time.Time
	end    time.Time
	lo, hi float64
}

func (f plotFrame) x(t time.Time) int {
	span := float64(f.end.Sub(f.start))
	frac := float64(t.Sub(f.start)) / span
	return f.rect.Min.X + int(frac*float64(f.rect.Dx()))
}

func (f plotFrame) y(v float64) int {
	frac := (v - f.lo) / (f.hi - f.lo)
	return f.rect.Max.Y - int(frac*float64(f.rect.Dy()))
}

// RenderCard draws the tide card and returns it PNG-encoded.
func RenderCard(data CardData) ([]byte, error) {
	if !data.End.After(data.Start) {
		return nil, fmt.Errorf("render card: empty window")
	}
	usable := 0
	for _, p := range data.Points {
		if p.Value != nil {
			usable++
		}
	}
	if usable < 2 {
		return nil, fmt.Errorf("render card: no usable points for %s", data.Station.Key)
	}

	img := image.NewRGBA(image.Rect(0, 0, CardWidth, CardHeight))
	drawBackground(img)

	frame := plotFrame{
		rect:  image.Rect(80, 150, CardWidth-40, CardHeight-70),
		start: data.Start,
		end:   data.End,
	}
	frame.lo, frame.hi = levelRange(data)

	drawGridlines(img, frame)
	drawCurve(img, frame, data.Points)
	for _, ev := range data.Events {
		if ev.Time.Before(frame.start) || !ev.Time.Before(frame.end) {
			continue
		}
		drawEventMarker(img, frame, ev)
	}
	if data.Now != nil && !data.Now.Time.Before(frame.start) && data.Now.Time.Before(frame.end) {
		drawNowMarker(img, frame, *data.Now)
	}

	drawLabel(img, data.Station.Name, 60, 36, cardWhite, 3)
	drawLabel(img, data.DateLabel, 60, 88, cardLightGray, 2)
	drawLabel(img, datumNote(data.Station.Datum), 60, CardHeight-44, cardLightGray, 2)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode card: %w", err)
	}
	return buf.Bytes(), nil
}

func datumNote(d models.Datum) string {
	if d == models.DatumGeodeticCGVD28 {
		return "heights in metres, CGVD28 geodetic datum"
	}
	return "heights in metres above chart datum"
}

// levelRange picks the vertical extent: every plotted value plus a margin,
// rounded out to whole metres so the gridlines land on round numbers.
func levelRange(data CardData) (lo, hi float64) {
	minV, maxV := math.Inf(1), math.Inf(-1)
	take := func(v float64) {
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	for _, p := range data.Points {
		if p.Value != nil {
			take(*p.Value)
		}
	}
	for _, ev := range data.Events {
		take(ev.Value)
	}
	if data.Now != nil {
		take(data.Now.Estimated)
	}
	lo = math.Floor(minV - 0.2)
	hi = math.Ceil(maxV + 0.2)
	if hi-lo < 2 {
		hi = lo + 2
	}
	return lo, hi
}

// drawBackground fills the card with a vertical deep-water gradient.
func drawBackground(img *image.RGBA) {
	for y := 0; y < CardHeight; y++ {
		progress := float64(y) / float64(CardHeight)
		r := uint8(10 + progress*8)
		g := uint8(25 + progress*20)
		b := uint8(45 + progress*30)
		for x := 0; x < CardWidth; x++ {
			img.SetRGBA(x, y, color.RGBA{r, g, b, 255})
		}
	}
}

func drawGridlines(img *image.RGBA, f plotFrame) {
	for m := int(math.Ceil(f.lo)); float64(m) <= f.hi; m++ {
		gy := f.y(float64(m))
		if gy < f.rect.Min.Y || gy >= f.rect.Max.Y {
			continue
		}
		for x := f.rect.Min.X; x < f.rect.Max.X; x++ {
			blendPixel(img, x, gy, cardWhite, 0.10)
		}
		label := fmt.Sprintf("%d m", m)
		drawLabel(img, label, f.rect.Min.X-labelWidth(label, 2)-10, gy-13, cardLightGray, 2)
	}
}

// drawCurve walks the plot column by column, interpolating the level at each
// x. A nil value on either side of the bracketing pair leaves the column
// empty, so feed gaps show as breaks rather than invented water.
func drawCurve(img *image.RGBA, f plotFrame, points []models.Point) {
	i := 0
	prevY := -1
	for x := f.rect.Min.X; x < f.rect.Max.X; x++ {
		frac := float64(x-f.rect.Min.X) / float64(f.rect.Dx())
		t := f.start.Add(time.Duration(frac * float64(f.end.Sub(f.start))))
		for i+1 < len(points) && points[i+1].Time.Before(t) {
			i++
		}
		if i+1 >= len(points) {
			break
		}
		a, b := points[i], points[i+1]
		if t.Before(a.Time) || a.Value == nil || b.Value == nil || !b.Time.After(a.Time) {
			prevY = -1
			continue
		}
		vfrac := float64(t.Sub(a.Time)) / float64(b.Time.Sub(a.Time))
		v := *a.Value + vfrac*(*b.Value-*a.Value)
		cy := f.y(v)

		for y := cy + 1; y < f.rect.Max.Y; y++ {
			blendPixel(img, x, y, cardFill, 0.35)
		}
		top, bot := cy, cy
		if prevY >= 0 {
			top = min(prevY, cy)
			bot = max(prevY, cy)
		}
		for y := top - 1; y <= bot+1; y++ {
			if y >= f.rect.Min.Y && y < f.rect.Max.Y {
				img.SetRGBA(x, y, cardCurve)
			}
		}
		prevY = cy
	}
}

func drawEventMarker(img *image.RGBA, f plotFrame, ev models.HighLowEvent) {
	ex, ey := f.x(ev.Time), f.y(ev.Value)
	col := cardLowMark
	letter := "L"
	if ev.Type == models.EventHigh {
		col = cardHighMark
		letter = "H"
	}
	drawDisc(img, ex, ey, 5, col)

	line1 := fmt.Sprintf("%s %.2f m", letter, ev.Value)
	line2 := ev.TimeDisplay
	lx := clamp(ex-labelWidth(line1, 2)/2, f.rect.Min.X, f.rect.Max.X-labelWidth(line1, 2))
	ly := ey - 66
	if ev.Type == models.EventLow {
		ly = ey + 12
	}
	ly = clamp(ly, 110, CardHeight-110)
	drawLabel(img, line1, lx, ly, col, 2)
	drawLabel(img, line2, clamp(ex-labelWidth(line2, 2)/2, f.rect.Min.X, f.rect.Max.X-labelWidth(line2, 2)), ly+30, cardLightGray, 2)
}

func drawNowMarker(img *image.RGBA, f plotFrame, now models.NowEstimate) {
	nx := f.x(now.Time)
	for y := f.rect.Min.Y; y < f.rect.Max.Y; y++ {
		blendPixel(img, nx, y, cardAmber, 0.45)
	}
	drawDisc(img, nx, f.y(now.Estimated), 6, cardAmber)

	label := fmt.Sprintf("now %.2f m", now.Estimated)
	lx := nx + 14
	if lx+labelWidth(label, 2) > f.rect.Max.X {
		lx = nx - labelWidth(label, 2) - 14
	}
	drawLabel(img, label, lx, clamp(f.y(now.Estimated)-13, f.rect.Min.Y, f.rect.Max.Y-26), cardAmber, 2)
}

func drawDisc(img *image.RGBA, cx, cy, r int, col color.RGBA) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				setPixel(img, cx+dx, cy+dy, col)
			}
		}
	}
}

// drawLabel renders text with the bitmap face into an offscreen buffer and
// blits it scaled up with nearest-neighbour sampling. Face7x13 is far too
// small for a 1200px card on its own.
func drawLabel(img *image.RGBA, text string, x, y int, col color.RGBA, scale int) {
	if text == "" {
		return
	}
	face := basicfont.Face7x13
	w := font.MeasureString(face, text).Ceil()
	h := face.Ascent + face.Descent
	if w == 0 {
		return
	}
	off := image.NewRGBA(image.Rect(0, 0, w, h))
	d := &font.Drawer{
		Dst:  off,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: 0, Y: fixed.I(face.Ascent)},
	}
	d.DrawString(text)

	for dy := 0; dy < h*scale; dy++ {
		for dx := 0; dx < w*scale; dx++ {
			px := off.RGBAAt(dx/scale, dy/scale)
			if px.A == 0 {
				continue
			}
			setPixel(img, x+dx, y+dy, px)
		}
	}
}

func labelWidth(text string, scale int) int {
	return font.MeasureString(basicfont.Face7x13, text).Ceil() * scale
}

func blendPixel(img *image.RGBA, x, y int, col color.RGBA, alpha float64) {
	if !image.Pt(x, y).In(img.Bounds()) {
		return
	}
	orig := img.RGBAAt(x, y)
	orig.R = uint8(float64(orig.R)*(1-alpha) + float64(col.R)*alpha)
	orig.G = uint8(float64(orig.G)*(1-alpha) + float64(col.G)*alpha)
	orig.B = uint8(float64(orig.B)*(1-alpha) + float64(col.B)*alpha)
	img.SetRGBA(x, y, orig)
}

func setPixel(img *image.RGBA, x, y int, col color.RGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetRGBA(x, y, col)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
