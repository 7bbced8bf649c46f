package system

import (
	"image"
	"sync"
)

// ImagePool recycles frame buffers during export. A manifest renders at one
// size, so in practice there is a single bucket per run.
type ImagePool struct {
	buckets sync.Map // image.Rectangle -> *sync.Pool
}

func NewImagePool() *ImagePool { return &ImagePool{} }

var frames = NewImagePool()

// GetImage returns a cleared frame buffer from the shared pool.
func GetImage(rect image.Rectangle) *image.RGBA { return frames.Get(rect) }

// PutImage returns a buffer obtained from GetImage.
func PutImage(img *image.RGBA) { frames.Put(img) }

func (p *ImagePool) bucket(rect image.Rectangle) *sync.Pool {
	if b, ok := p.buckets.Load(rect); ok {
		return b.(*sync.Pool)
	}
	b, _ := p.buckets.LoadOrStore(rect, &sync.Pool{
		New: func() any { return image.NewRGBA(rect) },
	})
	return b.(*sync.Pool)
}

func (p *ImagePool) Get(rect image.Rectangle) *image.RGBA {
	img := p.bucket(rect).Get().(*image.RGBA)
	clear(img.Pix)
	return img
}

// Put ignores nil and buffers of a size the pool never handed out.
func (p *ImagePool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	if b, ok := p.buckets.Load(img.Rect); ok {
		b.(*sync.Pool).Put(img)
	}
}
