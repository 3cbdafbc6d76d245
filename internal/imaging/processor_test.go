package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"strings"
	"testing"
)

func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func TestProcessEntry(t *testing.T) {
	dir := t.TempDir()
	p := NewProcessor(dir)

	data := testJPEG(t, 800, 600)
	result, err := p.ProcessEntry(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ProcessEntry: %v", err)
	}

	if result.Width != 800 || result.Height != 600 {
		t.Errorf("dimensions = %dx%d, want 800x600", result.Width, result.Height)
	}
	if result.TakenAt != nil {
		t.Error("TakenAt should be nil without EXIF data")
	}

	for _, path := range []string{result.FilePath, result.ThumbPath} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("stored file missing: %v", err)
		}
		if !strings.HasSuffix(path, ".jpg") {
			t.Errorf("path %q should be normalized to .jpg", path)
		}
	}

	// Thumbnail fits within the gallery bounds
	tw, th, err := p.GetImageDimensions(result.ThumbPath)
	if err != nil {
		t.Fatalf("GetImageDimensions: %v", err)
	}
	if tw > thumbMaxWidth || th > thumbMaxHeight {
		t.Errorf("thumbnail = %dx%d, exceeds %dx%d", tw, th, thumbMaxWidth, thumbMaxHeight)
	}
}

func TestProcessEntryPNGNormalizedToJPEG(t *testing.T) {
	dir := t.TempDir()
	p := NewProcessor(dir)

	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}

	result, err := p.ProcessEntry(&buf)
	if err != nil {
		t.Fatalf("ProcessEntry: %v", err)
	}
	if !strings.HasSuffix(result.FilePath, ".jpg") {
		t.Errorf("PNG upload should be stored as JPEG, got %q", result.FilePath)
	}
}

func TestProcessEntryRejectsGarbage(t *testing.T) {
	p := NewProcessor(t.TempDir())

	if _, err := p.ProcessEntry(strings.NewReader("this is not an image")); err == nil {
		t.Error("ProcessEntry should reject non-image data")
	}
}

func TestDeleteEntryFiles(t *testing.T) {
	dir := t.TempDir()
	p := NewProcessor(dir)

	result, err := p.ProcessEntry(bytes.NewReader(testJPEG(t, 64, 64)))
	if err != nil {
		t.Fatalf("ProcessEntry: %v", err)
	}

	if err := p.DeleteEntryFiles(result.FilePath, result.ThumbPath); err != nil {
		t.Fatalf("DeleteEntryFiles: %v", err)
	}
	if _, err := os.Stat(result.FilePath); !os.IsNotExist(err) {
		t.Error("original should be removed")
	}
	if _, err := os.Stat(result.ThumbPath); !os.IsNotExist(err) {
		t.Error("thumbnail should be removed")
	}

	// Deleting again is not an error
	if err := p.DeleteEntryFiles(result.FilePath, result.ThumbPath); err != nil {
		t.Errorf("DeleteEntryFiles on missing files: %v", err)
	}
}

func TestSaveFileRejectsTraversal(t *testing.T) {
	p := NewProcessor(t.TempDir())

	if _, err := p.saveFile("../outside", "x.jpg", []byte("data")); err == nil {
		t.Error("saveFile should reject subDir traversal")
	}
	if _, err := p.saveFile("photos", "", []byte("data")); err == nil {
		t.Error("saveFile should reject empty filename")
	}
}

func TestApplyOrientation(t *testing.T) {
	// 20x10 landscape rotated per orientation 6 becomes 10x20 portrait
	img := image.NewRGBA(image.Rect(0, 0, 20, 10))

	rotated := applyOrientation(img, 6)
	b := rotated.Bounds()
	if b.Dx() != 10 || b.Dy() != 20 {
		t.Errorf("orientation 6 result = %dx%d, want 10x20", b.Dx(), b.Dy())
	}

	same := applyOrientation(img, 1)
	if same.Bounds() != img.Bounds() {
		t.Error("orientation 1 should leave the image unchanged")
	}
}
