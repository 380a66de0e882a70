package imaging

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

// tinyWebP is a 1x1 lossless WebP.
var tinyWebP = []byte("RIFF\x1a\x00\x00\x00WEBPVP8L\x0d\x00\x00\x00\x2f\x00\x00\x00\x10\x07\x10\x11\x11\x88\x88\xfe\x07\x00")

func createTestJPEG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func createTestPNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{0, 0, 255, 255})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

// pngHeaderOnly returns a PNG signature and IHDR chunk declaring w x h
// pixels, with no image data behind it.
func pngHeaderOnly(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 6 // RGBA

	binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestInspectJPEG(t *testing.T) {
	info, err := Inspect(createTestJPEG(40, 20))
	if err != nil {
		t.Fatalf("Inspect JPEG: %v", err)
	}
	if info.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", info.MIME)
	}
	if info.Width != 40 || info.Height != 20 {
		t.Errorf("expected 40x20, got %dx%d", info.Width, info.Height)
	}
}

func TestInspectPNG(t *testing.T) {
	info, err := Inspect(createTestPNG(10, 10))
	if err != nil {
		t.Fatalf("Inspect PNG: %v", err)
	}
	if info.MIME != "image/png" {
		t.Errorf("expected image/png, got %s", info.MIME)
	}
}

func TestInspectWebP(t *testing.T) {
	info, err := Inspect(tinyWebP)
	if err != nil {
		t.Fatalf("Inspect WebP: %v", err)
	}
	if info.MIME != "image/webp" {
		t.Errorf("expected image/webp, got %s", info.MIME)
	}
	if info.Width != 1 || info.Height != 1 {
		t.Errorf("expected 1x1, got %dx%d", info.Width, info.Height)
	}
}

func TestInspectRejectsNonImages(t *testing.T) {
	inputs := [][]byte{
		[]byte("not an image"),
		[]byte("GIF89a..."),
	}
	for _, in := range inputs {
		_, err := Inspect(in)
		if !errors.Is(err, ErrUnsupported) {
			t.Errorf("Inspect(%q) error = %v, want ErrUnsupported", in, err)
		}
	}
}

func TestShrinkDownscalesKeepingFormat(t *testing.T) {
	data := createTestPNG(300, 150)
	info, err := Inspect(data)
	if err != nil {
		t.Fatal(err)
	}

	out, changed, err := Shrink(data, info, 100)
	if err != nil {
		t.Fatalf("Shrink: %v", err)
	}
	if !changed {
		t.Fatal("expected oversize image to be changed")
	}

	shrunk, err := Inspect(out)
	if err != nil {
		t.Fatalf("Inspect result: %v", err)
	}
	if shrunk.MIME != "image/png" {
		t.Errorf("expected format to stay image/png, got %s", shrunk.MIME)
	}
	if shrunk.Width != 100 || shrunk.Height != 50 {
		t.Errorf("expected 100x50, got %dx%d", shrunk.Width, shrunk.Height)
	}
}

func TestShrinkSmallImageUntouched(t *testing.T) {
	data := createTestJPEG(50, 50)
	info, _ := Inspect(data)

	out, changed, err := Shrink(data, info, 100)
	if err != nil {
		t.Fatalf("Shrink: %v", err)
	}
	if changed || !bytes.Equal(out, data) {
		t.Error("small image should not be re-encoded")
	}
}

func TestShrinkDisabled(t *testing.T) {
	data := createTestJPEG(200, 200)
	info, _ := Inspect(data)

	_, changed, err := Shrink(data, info, 0)
	if err != nil {
		t.Fatalf("Shrink: %v", err)
	}
	if changed {
		t.Error("maxDim 0 should disable downscaling")
	}
}

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"image/png":  ".png",
		"image/webp": ".webp",
		"image/jpeg": ".jpg",
		"":           ".jpg",
	}
	for mime, want := range tests {
		if got := Extension(mime); got != want {
			t.Errorf("Extension(%q) = %q, want %q", mime, got, want)
		}
	}
}

func TestCheckPixels(t *testing.T) {
	info, err := Inspect(pngHeaderOnly(40000, 40000))
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if info.Width != 40000 || info.Height != 40000 {
		t.Fatalf("expected declared 40000x40000, got %dx%d", info.Width, info.Height)
	}

	err = info.CheckPixels(DefaultMaxPixels)
	if !errors.Is(err, ErrTooLarge) || !errors.Is(err, ErrUnsupported) {
		t.Errorf("CheckPixels error = %v, want ErrTooLarge matching ErrUnsupported", err)
	}
	if err := info.CheckPixels(0); err != nil {
		t.Errorf("zero limit should disable the check, got %v", err)
	}

	small := &Info{MIME: "image/png", Width: 100, Height: 100}
	if err := small.CheckPixels(DefaultMaxPixels); err != nil {
		t.Errorf("small image rejected: %v", err)
	}
}

func TestDecodeRejectsTruncated(t *testing.T) {
	data := createTestPNG(100, 100)
	truncated := data[:len(data)-16]

	if _, err := Inspect(truncated); err != nil {
		t.Fatalf("header of truncated image should still inspect: %v", err)
	}
	if _, err := Decode(truncated); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Decode error = %v, want ErrUnsupported", err)
	}
	if _, err := Decode(data); err != nil {
		t.Errorf("Decode of intact image: %v", err)
	}
}

func TestShrinkTruncatedIsUnsupported(t *testing.T) {
	data := createTestPNG(300, 10)
	truncated := data[:len(data)-16]
	info, err := Inspect(truncated)
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := Shrink(truncated, info, 100); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Shrink error = %v, want ErrUnsupported", err)
	}
}
