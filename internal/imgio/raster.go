package imgio

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/Fepozopo/clrq/internal/colorquant"
)

// OpenRaster reads an image file from disk and returns it as a
// width/height/packed-pixel triple, dispatching JPEG to the imagick-backed
// Decode and everything else to the matching Go codec based on a magic-byte
// sniff. For JPEG it also returns the original APPn segments and whether
// the pixel buffer was rotated to correct a non-one EXIF orientation, so a
// later SaveRaster call can round-trip both.
func OpenRaster(path string) (width, height int, pixels []colorquant.PackedPixel, meta RasterMeta, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, nil, RasterMeta{}, err
	}

	if len(b) >= 3 && bytes.Equal(b[:3], []byte{0xFF, 0xD8, 0xFF}) {
		segs, _ := ParseJPEGAppSegments(b)
		w, h, pixels, err := Decode(b)
		if err != nil {
			return 0, 0, nil, RasterMeta{}, err
		}
		meta := RasterMeta{AppSegments: segs}
		if orientation, oerr := extractJPEGOrientation(b); oerr == nil && orientation >= 2 && orientation <= 8 {
			w, h, pixels = orientPacked(w, h, pixels, orientation)
			meta.AutoOriented = true
		}
		return w, h, pixels, meta, nil
	}

	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return 0, 0, nil, RasterMeta{}, fmt.Errorf("imgio: open %s: %w", path, err)
	}
	w, h, pixels, err := imageToPacked(img)
	return w, h, pixels, RasterMeta{}, err
}

// SaveRaster writes a width/height/packed-pixel triple to disk, dispatching
// on the destination extension. JPEG is routed through the imagick-backed
// Encode; meta.AppSegments (with the orientation tag rewritten to 1 if
// meta.AutoOriented) is reinserted into the freshly encoded bytes so the
// saved file carries the original EXIF/XMP/JFIF metadata rather than
// whatever minimal segments the encoder writes on its own.
func SaveRaster(path string, w, h int, pixels []colorquant.PackedPixel, quality int, meta RasterMeta) error {
	ext := strings.ToLower(filepath.Ext(path))

	if ext == ".jpg" || ext == ".jpeg" {
		blob, err := Encode(pixels, w, h, quality)
		if err != nil {
			return err
		}
		if len(meta.AppSegments) > 0 || meta.AutoOriented {
			segs := make([]AppSegment, len(meta.AppSegments))
			copy(segs, meta.AppSegments)
			if meta.AutoOriented {
				for i, s := range segs {
					if s.Marker == 0xE1 {
						segs[i].Payload = RewriteEXIFOrientationToOne(s.Payload)
					}
				}
			}
			merged, err := InsertAppSegmentsIntoJPEG(blob, segs)
			if err != nil {
				return err
			}
			blob = merged
		} else {
			blob = StripJPEGAppSegments(blob)
		}
		return os.WriteFile(path, blob, 0o644)
	}

	img := PackedToImage(w, h, pixels)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch ext {
	case ".png":
		return png.Encode(f, img)
	case ".gif":
		return gif.Encode(f, img, nil)
	case ".bmp":
		return bmp.Encode(f, img)
	case ".tif", ".tiff":
		return tiff.Encode(f, img, nil)
	default:
		return png.Encode(f, img)
	}
}

func imageToPacked(img image.Image) (int, int, []colorquant.PackedPixel, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pixels := make([]colorquant.PackedPixel, w*h)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bch, _ := img.At(x, y).RGBA()
			pixels[i] = colorquant.Pack(uint8(r>>8), uint8(g>>8), uint8(bch>>8))
			i++
		}
	}
	return w, h, pixels, nil
}

// PackedToImage materializes a packed-pixel buffer as an image.Image, for
// callers (terminal preview, non-JPEG encoders) that need the standard
// library's image types rather than the engine's own packed format.
func PackedToImage(w, h int, pixels []colorquant.PackedPixel) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i, p := range pixels {
		r, g, b := p.RGB()
		img.SetNRGBA(i%w, i/w, color.NRGBA{R: r, G: g, B: b, A: 255})
	}
	return img
}
