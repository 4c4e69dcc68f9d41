package render

import (
	"image"
	"sync"
)

// Pool recycles RGBA images by resolution.
// It is safe for concurrent use.
type Pool struct {
	mu    sync.Mutex
	pools map[image.Point]*sync.Pool
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{pools: make(map[image.Point]*sync.Pool)}
}

func (p *Pool) poolFor(size image.Point) *sync.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()
	sp, ok := p.pools[size]
	if !ok {
		sp = &sync.Pool{
			New: func() any {
				return image.NewRGBA(image.Rectangle{Max: size})
			},
		}
		p.pools[size] = sp
	}
	return sp
}

// Get returns an image of the given size. Its contents are undefined.
func (p *Pool) Get(width, height int) *image.RGBA {
	img, _ := p.poolFor(image.Pt(width, height)).Get().(*image.RGBA)
	return img
}

// Put returns img to the pool. img must not be used afterwards.
func (p *Pool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	p.poolFor(img.Rect.Size()).Put(img)
}
