package imgio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/Fepozopo/clrq/internal/colorquant"
)

// AppSegment is a raw JPEG APPn marker segment (marker byte 0xE0-0xEF plus
// its payload, length prefix excluded), round-tripped across OpenRaster and
// SaveRaster so EXIF/XMP/JFIF metadata survives a clustering/remap pass.
type AppSegment struct {
	Marker  byte
	Payload []byte
}

// RasterMeta carries the per-file state OpenRaster extracts from a JPEG so
// a later SaveRaster call on the same logical image can round-trip it: the
// original APPn segments, and whether OpenRaster already rotated the pixel
// buffer to correct a non-one EXIF orientation tag.
type RasterMeta struct {
	AppSegments  []AppSegment
	AutoOriented bool
}

// ParseJPEGAppSegments walks the marker segments following the SOI marker
// and returns every APPn (0xE0-0xEF) segment in file order, stopping at the
// start-of-scan marker.
func ParseJPEGAppSegments(data []byte) ([]AppSegment, error) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil, fmt.Errorf("imgio: not a jpeg file")
	}
	var segs []AppSegment
	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			i++
			continue
		}
		marker := data[i+1]
		if marker == 0xDA {
			break
		}
		segLen := int(data[i+2])<<8 | int(data[i+3])
		if segLen < 2 || i+2+segLen > len(data) {
			break
		}
		if marker >= 0xE0 && marker <= 0xEF {
			payload := make([]byte, segLen-2)
			copy(payload, data[i+4:i+2+segLen])
			segs = append(segs, AppSegment{Marker: marker, Payload: payload})
		}
		i += 2 + segLen
	}
	return segs, nil
}

// StripJPEGAppSegments returns a copy of data with every APPn marker
// segment removed, leaving SOI, DQT/SOF/DHT and the entropy-coded scan
// untouched.
func StripJPEGAppSegments(data []byte) []byte {
	if len(data) < 2 {
		return data
	}
	var out bytes.Buffer
	out.Write(data[:2])
	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			out.WriteByte(data[i])
			i++
			continue
		}
		marker := data[i+1]
		if marker == 0xDA {
			out.Write(data[i:])
			return out.Bytes()
		}
		segLen := int(data[i+2])<<8 | int(data[i+3])
		if segLen < 2 || i+2+segLen > len(data) {
			out.Write(data[i:])
			return out.Bytes()
		}
		if marker >= 0xE0 && marker <= 0xEF {
			i += 2 + segLen
			continue
		}
		out.Write(data[i : i+2+segLen])
		i += 2 + segLen
	}
	if i < len(data) {
		out.Write(data[i:])
	}
	return out.Bytes()
}

// InsertAppSegmentsIntoJPEG replaces whatever APPn segments jpegBytes
// already carries (e.g. the JFIF header imagick's own encoder writes) with
// segs, in order, immediately after the SOI marker.
func InsertAppSegmentsIntoJPEG(jpegBytes []byte, segs []AppSegment) ([]byte, error) {
	stripped := StripJPEGAppSegments(jpegBytes)
	if len(stripped) < 2 || stripped[0] != 0xFF || stripped[1] != 0xD8 {
		return nil, fmt.Errorf("imgio: not a jpeg file")
	}
	var out bytes.Buffer
	out.Write(stripped[:2])
	for _, s := range segs {
		segLen := len(s.Payload) + 2
		out.WriteByte(0xFF)
		out.WriteByte(s.Marker)
		out.WriteByte(byte(segLen >> 8))
		out.WriteByte(byte(segLen & 0xFF))
		out.Write(s.Payload)
	}
	out.Write(stripped[2:])
	return out.Bytes(), nil
}

// RewriteEXIFOrientationToOne returns a copy of an APP1 "Exif\x00\x00"
// payload with the IFD0 orientation tag (0x0112) set to 1, so a saved image
// whose pixels were already auto-oriented doesn't get re-rotated by the
// next reader.
func RewriteEXIFOrientationToOne(payload []byte) []byte {
	if len(payload) < 6 || string(payload[:6]) != "Exif\x00\x00" {
		return payload
	}
	const tiffStart = 6
	if tiffStart+8 > len(payload) {
		return payload
	}
	var order binary.ByteOrder
	switch {
	case payload[tiffStart] == 'M' && payload[tiffStart+1] == 'M':
		order = binary.BigEndian
	case payload[tiffStart] == 'I' && payload[tiffStart+1] == 'I':
		order = binary.LittleEndian
	default:
		return payload
	}
	ifd0Off := int(order.Uint32(payload[tiffStart+4 : tiffStart+8]))
	absIfd := tiffStart + ifd0Off
	if absIfd+2 > len(payload) {
		return payload
	}
	out := append([]byte(nil), payload...)
	nEntries := int(order.Uint16(out[absIfd : absIfd+2]))
	entriesBase := absIfd + 2
	for e := 0; e < nEntries; e++ {
		ent := entriesBase + e*12
		if ent+12 > len(out) {
			break
		}
		if order.Uint16(out[ent:ent+2]) == 0x0112 {
			order.PutUint16(out[ent+8:ent+10], 1)
			break
		}
	}
	return out
}

// parseTIFFStartFromJPEG scans JPEG marker segments for an APP1 Exif block
// and returns the offset (into data) where the TIFF header begins, or an
// error if none is found.
func parseTIFFStartFromJPEG(data []byte) (int, error) {
	if len(data) < 4 {
		return -1, fmt.Errorf("imgio: data too short")
	}
	i := 2 // skip initial 0xFF 0xD8
	for i+4 < len(data) {
		if data[i] != 0xFF {
			i++
			continue
		}
		marker := data[i+1]
		if marker == 0xDA { // start of scan
			break
		}
		segLen := int(data[i+2])<<8 | int(data[i+3])
		if marker == 0xE1 && segLen >= 8 {
			if i+4+6 <= len(data) && string(data[i+4:i+10]) == "Exif\x00\x00" {
				return i + 10, nil
			}
		}
		if segLen <= 2 {
			i += 2
		} else {
			i += 2 + segLen
		}
	}
	return -1, fmt.Errorf("imgio: no exif segment")
}

// readEXIFTags reads the tags from TIFF data starting at tiffStart into a
// map keyed by (ifdType<<16)|tag, where ifdType is 0=IFD0, 1=ExifIFD,
// 2=GPS. ExifIFD (tag 0x8769) and GPS IFD (tag 0x8825) pointers are
// followed automatically.
func readEXIFTags(data []byte, tiffStart int) (map[uint32]string, error) {
	res := map[uint32]string{}
	if tiffStart+8 > len(data) {
		return res, fmt.Errorf("imgio: tiff header truncated")
	}
	var order binary.ByteOrder
	if data[tiffStart] == 'M' && data[tiffStart+1] == 'M' {
		order = binary.BigEndian
	} else if data[tiffStart] == 'I' && data[tiffStart+1] == 'I' {
		order = binary.LittleEndian
	} else {
		return res, fmt.Errorf("imgio: unknown tiff byte order")
	}
	if order.Uint16(data[tiffStart+2:tiffStart+4]) != 0x002A {
		return res, fmt.Errorf("imgio: invalid tiff magic")
	}

	visited := map[int]bool{}
	var readIFD func(ifdOffset int, ifdType int) error
	readIFD = func(ifdOffset int, ifdType int) error {
		absIfd := tiffStart + ifdOffset
		if absIfd+2 > len(data) {
			return fmt.Errorf("imgio: ifd truncated")
		}
		if visited[absIfd] {
			return nil
		}
		visited[absIfd] = true
		nEntries := int(order.Uint16(data[absIfd : absIfd+2]))
		entriesBase := absIfd + 2
		for e := 0; e < nEntries; e++ {
			ent := entriesBase + e*12
			if ent+12 > len(data) {
				break
			}
			tag := order.Uint16(data[ent : ent+2])
			typ := order.Uint16(data[ent+2 : ent+4])
			count := order.Uint32(data[ent+4 : ent+8])
			valOff := data[ent+8 : ent+12]

			sizePer := 1
			switch typ {
			case 1, 2:
				sizePer = 1
			case 3:
				sizePer = 2
			case 4:
				sizePer = 4
			case 5:
				sizePer = 8
			default:
				sizePer = 0
			}

			var valueBytes []byte
			if sizePer == 0 {
				if tag == 0x8769 || tag == 0x8825 {
					off32 := int(order.Uint32(valOff))
					if off32 > 0 && tiffStart+off32 < len(data) {
						if tag == 0x8769 {
							_ = readIFD(off32, ifdTypeExif)
						} else {
							_ = readIFD(off32, ifdTypeGPS)
						}
					}
				}
				continue
			}
			totalSize := int(count) * sizePer
			if totalSize <= 4 {
				buf := make([]byte, 4)
				copy(buf, valOff)
				valueBytes = buf[:totalSize]
			} else {
				off32 := int(order.Uint32(valOff))
				if off32 < 0 || tiffStart+off32+totalSize > len(data) {
					continue
				}
				valueBytes = data[tiffStart+off32 : tiffStart+off32+totalSize]
			}
			if tag == 0x8769 || tag == 0x8825 {
				off32 := int(order.Uint32(valOff))
				if off32 > 0 && tiffStart+off32 < len(data) {
					if tag == 0x8769 {
						_ = readIFD(off32, ifdTypeExif)
					} else {
						_ = readIFD(off32, ifdTypeGPS)
					}
				}
				continue
			}

			sval := ""
			switch typ {
			case 1: // BYTE
				if len(valueBytes) == 1 {
					sval = fmt.Sprintf("%d", valueBytes[0])
				} else {
					vals := make([]string, 0, len(valueBytes))
					for _, b := range valueBytes {
						vals = append(vals, fmt.Sprintf("%d", b))
					}
					sval = strings.Join(vals, ",")
				}
			case 2: // ASCII
				str := string(valueBytes)
				if idx := bytes.IndexByte(valueBytes, 0); idx >= 0 {
					str = string(valueBytes[:idx])
				}
				sval = str
			case 3: // SHORT
				vals := make([]string, 0, count)
				for i := 0; i < int(count); i++ {
					off := i * 2
					if off+2 > len(valueBytes) {
						break
					}
					vals = append(vals, fmt.Sprintf("%d", order.Uint16(valueBytes[off:off+2])))
				}
				sval = strings.Join(vals, ",")
			case 4: // LONG
				vals := make([]string, 0, count)
				for i := 0; i < int(count); i++ {
					off := i * 4
					if off+4 > len(valueBytes) {
						break
					}
					vals = append(vals, fmt.Sprintf("%d", order.Uint32(valueBytes[off:off+4])))
				}
				sval = strings.Join(vals, ",")
			case 5: // RATIONAL: two LONGs
				vals := make([]string, 0, count)
				for i := 0; i < int(count); i++ {
					off := i * 8
					if off+8 > len(valueBytes) {
						break
					}
					num := order.Uint32(valueBytes[off : off+4])
					den := order.Uint32(valueBytes[off+4 : off+8])
					if den == 0 {
						vals = append(vals, fmt.Sprintf("%d/0", num))
					} else {
						vals = append(vals, fmt.Sprintf("%d/%d", num, den))
					}
				}
				sval = strings.Join(vals, ",")
			}
			if sval != "" {
				res[(uint32(ifdType)<<16)|uint32(tag)] = sval
			}
		}
		last := entriesBase + nEntries*12
		if last+4 <= len(data) {
			nextOff := int(order.Uint32(data[last : last+4]))
			if nextOff > 0 && tiffStart+nextOff < len(data) {
				_ = readIFD(nextOff, ifdType)
			}
		}
		return nil
	}

	off := int(order.Uint32(data[tiffStart+4 : tiffStart+8]))
	if off <= 0 || tiffStart+off >= len(data) {
		return res, nil
	}
	_ = readIFD(off, ifdType0)
	return res, nil
}

// parseRational parses a single "num/den" string into float64.
func parseRational(s string) (float64, error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("imgio: invalid rational: %s", s)
	}
	num, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, err
	}
	den, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, err
	}
	if den == 0 {
		return 0, fmt.Errorf("imgio: zero denominator")
	}
	return num / den, nil
}

// parseRationalList parses comma-separated rationals into floats.
func parseRationalList(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := parseRational(p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// gpsToDecimal converts 3-element degrees/minutes/seconds to decimal
// degrees, applying ref (N/S/E/W).
func gpsToDecimal(vals []float64, ref string) (float64, error) {
	if len(vals) < 1 {
		return 0, fmt.Errorf("imgio: empty gps values")
	}
	deg := vals[0]
	min, sec := 0.0, 0.0
	if len(vals) >= 2 {
		min = vals[1]
	}
	if len(vals) >= 3 {
		sec = vals[2]
	}
	d := deg + min/60.0 + sec/3600.0
	if ref == "S" || ref == "W" {
		d = -d
	}
	return d, nil
}

// extractJPEGOrientation returns the EXIF orientation (1..8) recorded in
// jpegBytes, or an error if it carries no orientation tag.
func extractJPEGOrientation(jpegBytes []byte) (int, error) {
	tiffStart, err := parseTIFFStartFromJPEG(jpegBytes)
	if err != nil {
		return 0, err
	}
	tags, err := readEXIFTags(jpegBytes, tiffStart)
	if err != nil {
		return 0, err
	}
	for k, v := range tags {
		if uint16(k&0xffff) == 0x0112 {
			if vi, err := strconv.Atoi(v); err == nil {
				return vi, nil
			}
		}
	}
	return 0, fmt.Errorf("imgio: orientation tag not found")
}

// orientPacked applies the EXIF-standard geometric correction for
// orientation (2-8) to a packed-pixel buffer and returns the possibly
// transposed width/height and pixels. orientation values outside 2-8 are a
// no-op.
func orientPacked(w, h int, pixels []colorquant.PackedPixel, orientation int) (int, int, []colorquant.PackedPixel) {
	if orientation < 2 || orientation > 8 {
		return w, h, pixels
	}
	transposed := orientation == 5 || orientation == 6 || orientation == 7 || orientation == 8
	outW, outH := w, h
	if transposed {
		outW, outH = h, w
	}
	out := make([]colorquant.PackedPixel, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var dx, dy int
			switch orientation {
			case 2: // flip horizontal
				dx, dy = w-1-x, y
			case 3: // rotate 180
				dx, dy = w-1-x, h-1-y
			case 4: // flip vertical
				dx, dy = x, h-1-y
			case 5: // transpose
				dx, dy = y, x
			case 6: // rotate 90 CW
				dx, dy = h-1-y, x
			case 7: // transverse
				dx, dy = h-1-y, w-1-x
			case 8: // rotate 90 CCW
				dx, dy = y, w-1-x
			}
			out[dy*outW+dx] = pixels[y*w+x]
		}
	}
	return outW, outH, out
}

const (
	ifdType0    = 0
	ifdTypeExif = 1
	ifdTypeGPS  = 2
)
