package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// JPEGQuality is the compression quality used when a JPEG is re-encoded.
const JPEGQuality = 85

// DefaultMaxPixels caps the decoded size of an accepted image.
const DefaultMaxPixels = 50_000_000

var (
	// ErrUnsupported is returned for content that is not an accepted image.
	ErrUnsupported = errors.New("unsupported image format")
	// ErrTooLarge is returned when an image declares more pixels than
	// allowed. It matches ErrUnsupported.
	ErrTooLarge = fmt.Errorf("%w: too many pixels", ErrUnsupported)
)

// AllowedMIME lists the accepted photo MIME types.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Info describes a sniffed image.
type Info struct {
	MIME   string
	Width  int
	Height int
}

// Inspect validates that data is a JPEG, PNG or WebP image by sniffing the
// bytes (not trusting client headers) and decoding the image header.
func Inspect(data []byte) (*Info, error) {
	detected := http.DetectContentType(data)
	if !AllowedMIME[detected] {
		return nil, fmt.Errorf("%w: %s (only JPEG, PNG and WebP accepted)", ErrUnsupported, detected)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding image header: %v", ErrUnsupported, err)
	}

	return &Info{MIME: detected, Width: cfg.Width, Height: cfg.Height}, nil
}

// CheckPixels rejects images whose decoded form would exceed maxPixels.
// It only looks at the header dimensions, so it is safe to call before
// any pixel buffer is allocated. Zero disables the check.
func (i *Info) CheckPixels(maxPixels int64) error {
	if maxPixels <= 0 {
		return nil
	}
	if n := int64(i.Width) * int64(i.Height); n > maxPixels {
		return fmt.Errorf("%w: %dx%d exceeds %d", ErrTooLarge, i.Width, i.Height, maxPixels)
	}
	return nil
}

// Decode fully decodes data. Truncated or otherwise malformed content is
// reported as ErrUnsupported. Callers should run CheckPixels first.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding image: %v", ErrUnsupported, err)
	}
	return img, nil
}

// Extension returns the canonical file extension for an accepted MIME type.
func Extension(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// Shrink downscales a JPEG or PNG so neither side exceeds maxDim and
// re-encodes it in the same format. Decode failures match ErrUnsupported. WebP has no encoder available and is
// returned as is, as is anything already within bounds. The boolean
// reports whether the data changed.
func Shrink(data []byte, info *Info, maxDim int) ([]byte, bool, error) {
	if maxDim <= 0 || (info.Width <= maxDim && info.Height <= maxDim) {
		return data, false, nil
	}
	if info.MIME == "image/webp" {
		return data, false, nil
	}

	img, err := Decode(data)
	if err != nil {
		return nil, false, err
	}
	img = downscale(img, maxDim)

	var buf bytes.Buffer
	switch info.MIME {
	case "image/png":
		err = png.Encode(&buf, img)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality})
	}
	if err != nil {
		return nil, false, fmt.Errorf("encoding %s: %w", info.MIME, err)
	}
	return buf.Bytes(), true, nil
}

// downscale resizes the image so neither dimension exceeds maxDim.
// Uses high-quality Catmull-Rom interpolation.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := w, h
	if w > h {
		newW = maxDim
		newH = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		newH = maxDim
		newW = int(float64(w) * float64(maxDim) / float64(h))
	}

	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
	image.RegisterFormat("webp", "RIFF????WEBPVP8", webp.Decode, webp.DecodeConfig)
}
