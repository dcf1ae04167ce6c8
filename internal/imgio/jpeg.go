// Package imgio is the opaque decode/encode collaborator the clustering
// core consumes (spec 6): it never inspects pixel contents itself, only
// produces and accepts the packed-pixel buffers the core already works
// with.
package imgio

import (
	"fmt"
	"sync"

	"gopkg.in/gographics/imagick.v3/imagick"

	"github.com/Fepozopo/clrq/internal/colorquant"
)

var imagickInit sync.Once

func ensureImagick() {
	imagickInit.Do(func() {
		imagick.Initialize()
	})
}

// wandPool hands out MagickWand handles: Decode/Encode take a wand from the
// pool (constructed lazily by New), clear it after use and put it back for
// reuse by later calls. Pooled wands are never passed to Destroy.
var wandPool = sync.Pool{
	New: func() any {
		ensureImagick()
		return imagick.NewMagickWand()
	},
}

func acquireWand() *imagick.MagickWand {
	return wandPool.Get().(*imagick.MagickWand)
}

func releaseWand(mw *imagick.MagickWand) {
	mw.Clear()
	wandPool.Put(mw)
}

// Decode turns compressed image bytes into a width, height, and an opaque
// ARGB-packed pixel buffer with alpha tagged 0xFF (spec 6).
func Decode(data []byte) (width, height int, pixels []colorquant.PackedPixel, err error) {
	mw := acquireWand()
	defer releaseWand(mw)

	if err := mw.ReadImageBlob(data); err != nil {
		return 0, 0, nil, fmt.Errorf("imgio: decode: %w", err)
	}

	w := int(mw.GetImageWidth())
	h := int(mw.GetImageHeight())
	raw, err := mw.ExportImagePixels(0, 0, uint(w), uint(h), "RGB", imagick.PIXEL_CHAR)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("imgio: decode: export pixels: %w", err)
	}

	rgb, ok := raw.([]byte)
	if !ok {
		return 0, 0, nil, fmt.Errorf("imgio: decode: unexpected pixel buffer type %T", raw)
	}

	pixels = make([]colorquant.PackedPixel, w*h)
	for i := range pixels {
		r, g, b := rgb[i*3], rgb[i*3+1], rgb[i*3+2]
		pixels[i] = colorquant.Pack(r, g, b)
	}
	return w, h, pixels, nil
}

// DecodeAndSample fuses decode with reservoir sampling so that the caller
// who only wants a sample never materializes the full float Point array;
// the packed pixel buffer is still decoded in full.
func DecodeAndSample(data []byte, sampleSize int, seed uint64) (width, height int, sample []colorquant.Point, err error) {
	w, h, pixels, err := Decode(data)
	if err != nil {
		return 0, 0, nil, err
	}
	return w, h, colorquant.ReservoirSamplePacked(pixels, sampleSize, seed), nil
}

// Encode re-compresses a packed-pixel buffer to JPEG bytes at the given
// quality (1-100).
func Encode(pixels []colorquant.PackedPixel, w, h int, quality int) ([]byte, error) {
	if len(pixels) != w*h {
		return nil, fmt.Errorf("imgio: encode: pixel count %d does not match w*h=%d", len(pixels), w*h)
	}
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}

	rgb := make([]byte, w*h*3)
	for i, p := range pixels {
		r, g, b := p.RGB()
		rgb[i*3], rgb[i*3+1], rgb[i*3+2] = r, g, b
	}

	mw := acquireWand()
	defer releaseWand(mw)

	if err := mw.ConstituteImage(uint(w), uint(h), "RGB", imagick.PIXEL_CHAR, rgb); err != nil {
		return nil, fmt.Errorf("imgio: encode: constitute image: %w", err)
	}
	if err := mw.SetImageFormat("JPEG"); err != nil {
		return nil, fmt.Errorf("imgio: encode: set format: %w", err)
	}
	if err := mw.SetImageCompressionQuality(uint(quality)); err != nil {
		return nil, fmt.Errorf("imgio: encode: set quality: %w", err)
	}

	return mw.GetImageBlob(), nil
}
