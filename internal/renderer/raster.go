package renderer

import (
	"context"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/promoreel/internal/manifest"
	"github.com/ivlev/promoreel/internal/source"
	"github.com/ivlev/promoreel/internal/system"
)

const glyphHeight = 13 // basicfont.Face7x13

// Rasterize draws a scene. Media that fails to load is skipped so the
// background shows instead. The buffer comes from the system image pool;
// callers hand it back with system.PutImage when done.
func Rasterize(ctx context.Context, s Scene, loader source.Loader) (*image.RGBA, error) {
	w, h := s.Width, s.Height
	if w <= 0 || h <= 0 {
		w, h = manifest.DefaultWidth, manifest.DefaultHeight
	}
	dst := system.GetImage(image.Rect(0, 0, w, h))

	drawBackground(dst, s.Background)

	for _, c := range s.Clips {
		if err := ctx.Err(); err != nil {
			system.PutImage(dst)
			return nil, err
		}
		if c.Fallback || loader == nil {
			continue
		}
		img, err := loader.Load(ctx, c.URL)
		if err != nil {
			log.Debug().Err(err).Str("url", c.URL).Int("frame", s.Frame).Msg("clip media unavailable, using background")
			continue
		}
		drawClip(dst, img, c)
	}

	drawScrim(dst, s.Scrim)

	if s.Caption != nil {
		drawCaption(dst, s.Caption)
	}
	if s.EndCard != nil {
		drawEndCard(ctx, dst, s.EndCard, loader)
	}
	if s.Grain != nil {
		drawGrain(dst, s.Grain)
	}
	if s.Vignette != nil {
		drawVignette(dst, s.Vignette)
	}
	return dst, nil
}

// ParseHex reads #rgb or #rrggbb. Anything else is white.
func ParseHex(s string) color.RGBA {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.RGBA{255, 255, 255, 255}
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{255, 255, 255, 255}
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}
}

// blend mixes c over the pixel at (x, y) with coverage a.
func blend(img *image.RGBA, x, y int, c color.RGBA, a float64) {
	if a <= 0 || !image.Pt(x, y).In(img.Rect) {
		return
	}
	if a > 1 {
		a = 1
	}
	i := img.PixOffset(x, y)
	p := img.Pix[i : i+4 : i+4]
	p[0] = uint8(float64(p[0])*(1-a) + float64(c.R)*a)
	p[1] = uint8(float64(p[1])*(1-a) + float64(c.G)*a)
	p[2] = uint8(float64(p[2])*(1-a) + float64(c.B)*a)
	p[3] = 255
}

func fillRow(img *image.RGBA, y int, c color.RGBA, a float64) {
	for x := img.Rect.Min.X; x < img.Rect.Max.X; x++ {
		blend(img, x, y, c, a)
	}
}

func isLight(c color.RGBA) bool {
	return 0.299*float64(c.R)+0.587*float64(c.G)+0.114*float64(c.B) > 160
}

func lerpColor(a, b color.RGBA, t float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(a.R) + (float64(b.R)-float64(a.R))*t),
		G: uint8(float64(a.G) + (float64(b.G)-float64(a.G))*t),
		B: uint8(float64(a.B) + (float64(b.B)-float64(a.B))*t),
		A: 255,
	}
}

func drawBackground(dst *image.RGBA, bg Background) {
	top, bottom := ParseHex(bg.Top), ParseHex(bg.Bottom)
	h := dst.Rect.Dy()
	for y := 0; y < h; y++ {
		fillRow(dst, y, lerpColor(top, bottom, float64(y)/float64(max(1, h-1))), 1)
	}
	if bg.Scanlines {
		for y := bg.ScanlineOffset; y < h; y += scanlineSpacing {
			fillRow(dst, y, color.RGBA{0, 0, 0, 255}, 0.25)
		}
	}
}

// coverRect scales src to cover the frame, then applies the clip transform.
func coverRect(frame image.Rectangle, src image.Rectangle, scale, tx, ty float64) image.Rectangle {
	fw, fh := float64(frame.Dx()), float64(frame.Dy())
	sw, sh := float64(src.Dx()), float64(src.Dy())
	if sw == 0 || sh == 0 {
		return image.Rectangle{}
	}
	k := math.Max(fw/sw, fh/sh) * scale
	w, h := sw*k, sh*k
	x0 := (fw-w)/2 + tx
	y0 := (fh-h)/2 + ty
	return image.Rect(int(math.Round(x0)), int(math.Round(y0)), int(math.Round(x0+w)), int(math.Round(y0+h)))
}

func alphaMask(opacity float64) image.Image {
	return image.NewUniform(color.Alpha{A: uint8(math.Round(255 * math.Max(0, math.Min(1, opacity))))})
}

func drawClip(dst *image.RGBA, img image.Image, c ClipLayer) {
	t := c.Transform
	if t.Opacity <= 0 || t.Scale <= 0 {
		return
	}
	r := coverRect(dst.Rect, img.Bounds(), t.Scale, t.TranslateX, t.TranslateY)
	opts := &xdraw.Options{DstMask: alphaMask(t.Opacity)}
	xdraw.ApproxBiLinear.Scale(dst, r, img, img.Bounds(), xdraw.Over, opts)

	if t.RGBSplit > 0 {
		// tinted ghost for the channel split
		split := int(math.Round(t.RGBSplit))
		ghost := r.Add(image.Pt(split, 0))
		xdraw.Draw(dst, ghost.Intersect(dst.Rect), image.NewUniform(color.NRGBA{255, 0, 128, 40}), image.Point{}, xdraw.Over)
	}
}

func drawScrim(dst *image.RGBA, s Scrim) {
	c := ParseHex(s.Color)
	h := dst.Rect.Dy()
	band := h / 4
	for y := 0; y < band; y++ {
		fillRow(dst, y, c, s.Top*(1-float64(y)/float64(band)))
	}
	for y := h - band; y < h; y++ {
		fillRow(dst, y, c, s.Bottom*float64(y-(h-band))/float64(band))
	}
}

// textImage renders a line with the built-in bitmap face.
func textImage(text string, c color.RGBA) *image.RGBA {
	face := basicfont.Face7x13
	d := &font.Drawer{Face: face}
	w := d.MeasureString(text).Ceil()
	if w <= 0 {
		return nil
	}
	img := image.NewRGBA(image.Rect(0, 0, w, glyphHeight))
	d.Dst = img
	d.Src = image.NewUniform(c)
	d.Dot = fixed.P(0, face.Ascent)
	d.DrawString(text)
	return img
}

// drawText centers a line at (cx, cy) with pixel height size.
func drawText(dst *image.RGBA, text string, c color.RGBA, cx, cy, size, opacity float64) image.Rectangle {
	img := textImage(text, c)
	if img == nil || size <= 0 || opacity <= 0 {
		return image.Rectangle{}
	}
	k := size / glyphHeight
	w := float64(img.Bounds().Dx()) * k
	if maxW := float64(dst.Rect.Dx()) * 0.9; w > maxW {
		k *= maxW / w
		w = maxW
	}
	h := glyphHeight * k
	r := image.Rect(int(cx-w/2), int(cy-h/2), int(cx+w/2), int(cy+h/2))
	xdraw.NearestNeighbor.Scale(dst, r, img, img.Bounds(), xdraw.Over, &xdraw.Options{DstMask: alphaMask(opacity)})
	return r
}

func captionY(position string, h float64) float64 {
	switch position {
	case manifest.PositionTop:
		return h * 0.15
	case manifest.PositionBottom:
		return h * 0.8
	}
	return h * 0.5
}

func drawCaption(dst *image.RGBA, c *CaptionLayer) {
	st := c.Style
	w, h := float64(dst.Rect.Dx()), float64(dst.Rect.Dy())
	cx := w/2 + st.TranslateX
	cy := captionY(c.Position, h) + st.TranslateY
	size := float64(st.FontSize) * st.Scale

	for _, sh := range st.Shadows {
		drawText(dst, st.Text, ParseHex(sh.Color), cx+sh.OffsetX, cy+sh.OffsetY, size, st.Opacity*0.6)
	}
	if st.Stroke != "" && st.StrokeWidth > 0 {
		sw := st.StrokeWidth
		for _, o := range [][2]float64{{-sw, 0}, {sw, 0}, {0, -sw}, {0, sw}} {
			drawText(dst, st.Text, ParseHex(st.Stroke), cx+o[0], cy+o[1], size, st.Opacity)
		}
	}
	drawText(dst, st.Text, ParseHex(st.Color), cx, cy, size, st.Opacity)
}

func drawEndCard(ctx context.Context, dst *image.RGBA, card *EndCard, loader source.Loader) {
	w, h := float64(dst.Rect.Dx()), float64(dst.Rect.Dy())
	bg := ParseHex(card.Colors.Background)

	panel := image.Rect(int(w*0.08), int(h*0.18), int(w*0.92), int(h*0.86))
	for y := panel.Min.Y; y < panel.Max.Y; y++ {
		for x := panel.Min.X; x < panel.Max.X; x++ {
			blend(dst, x, y, bg, 0.85*card.Opacity)
		}
	}

	if loader != nil && !IsPlaceholderURL(card.Image) {
		if img, err := loader.Load(ctx, card.Image); err == nil {
			side := w * 0.6 * card.Scale
			r := image.Rect(int(w/2-side/2), int(h*0.22), int(w/2+side/2), int(h*0.22+side))
			xdraw.ApproxBiLinear.Scale(dst, r, img, img.Bounds(), xdraw.Over, &xdraw.Options{DstMask: alphaMask(card.Opacity)})
		}
	}

	text := ParseHex(card.Colors.Secondary)
	if isLight(bg) {
		text = ParseHex(card.Colors.Primary)
	}
	drawText(dst, card.Title, text, w/2, h*0.6, 56*card.Scale, card.Opacity)

	price := ParseHex(card.Colors.Primary)
	if card.PriceGlow > 0 {
		drawText(dst, card.Price, ParseHex(card.Colors.Accent), w/2+card.PriceOffsetX, h*0.67, 80*card.Scale+4, card.Opacity*0.4*card.PriceGlow)
	}
	drawText(dst, card.Price, price, w/2+card.PriceOffsetX, h*0.67, 80*card.Scale, card.Opacity)

	btn := image.Rect(int(w*0.25), int(h*0.72), int(w*0.75), int(h*0.77))
	accent := ParseHex(card.Colors.Accent)
	for y := btn.Min.Y; y < btn.Max.Y; y++ {
		for x := btn.Min.X; x < btn.Max.X; x++ {
			blend(dst, x, y, accent, card.Opacity)
		}
	}
	drawText(dst, strings.ToUpper(card.CTA), color.RGBA{255, 255, 255, 255}, w/2, h*0.745, 40, card.Opacity)

	if card.QRData != "" {
		drawQR(dst, card.QRData, int(w*0.18), card.Opacity)
	}
}

func drawQR(dst *image.RGBA, data string, size int, opacity float64) {
	q, err := qrcode.New(data, qrcode.Medium)
	if err != nil {
		log.Debug().Err(err).Msg("qr encode failed")
		return
	}
	img := q.Image(size)
	margin := size / 6
	at := image.Pt(dst.Rect.Max.X-size-margin, dst.Rect.Max.Y-size-margin)
	r := image.Rectangle{Min: at, Max: at.Add(image.Pt(size, size))}
	xdraw.Draw(dst, r, img, img.Bounds().Min, xdraw.Over)
	if opacity < 1 {
		// fade the code in with the card
		bg := color.RGBA{0, 0, 0, 255}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				blend(dst, x, y, bg, 1-opacity)
			}
		}
	}
}

// splitmix64 is a cheap integer hash for per-pixel grain.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

func drawGrain(dst *image.RGBA, g *Grain) {
	b := dst.Rect
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		for x := b.Min.X; x < b.Max.X; x += 2 {
			n := splitmix64(g.Seed ^ uint64(y*b.Dx()+x))
			v := uint8(n)
			c := color.RGBA{v, v, v, 255}
			a := g.Opacity * float64(n>>8&0xff) / 255
			blend(dst, x, y, c, a)
			blend(dst, x+1, y, c, a)
			blend(dst, x, y+1, c, a)
			blend(dst, x+1, y+1, c, a)
		}
	}
}

func drawVignette(dst *image.RGBA, v *Vignette) {
	b := dst.Rect
	cx, cy := float64(b.Dx())/2, float64(b.Dy())/2
	maxD := math.Hypot(cx, cy)
	black := color.RGBA{0, 0, 0, 255}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy) / maxD
			if d <= 0.5 {
				continue
			}
			t := (d - 0.5) / 0.5
			blend(dst, x, y, black, v.Strength*t*t)
		}
	}
}
