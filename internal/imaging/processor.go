// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging processes photo competition uploads: EXIF-aware
// decoding, thumbnail generation, and safe storage under the upload
// directory.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder
)

// Thumbnail bounds and JPEG quality for gallery display.
const (
	thumbMaxWidth   = 480
	thumbMaxHeight  = 480
	originalQuality = 90
	thumbQuality    = 80
)

// EntryResult describes a stored competition photo.
type EntryResult struct {
	FilePath  string
	ThumbPath string
	Width     int
	Height    int
	Size      int64
	TakenAt   *time.Time // From EXIF, nil when absent
}

// Processor handles photo upload processing using pure Go libraries.
type Processor struct {
	uploadDir string
}

// NewProcessor creates a new photo processor rooted at uploadDir.
func NewProcessor(uploadDir string) *Processor {
	return &Processor{
		uploadDir: uploadDir,
	}
}

// ProcessEntry reads an uploaded photo, corrects EXIF orientation,
// extracts the capture time, and stores a re-encoded JPEG original plus
// a thumbnail. All uploads are normalized to JPEG so EXIF metadata
// (including location data) is stripped before the file is served.
func (p *Processor) ProcessEntry(reader io.Reader) (*EntryResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading photo data: %w", err)
	}

	if !isSupportedFormat(data) {
		return nil, fmt.Errorf("unsupported image format")
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding photo: %w", err)
	}

	orientation := readExifOrientation(bytes.NewReader(data))
	img = applyOrientation(img, orientation)
	takenAt := readExifTakenAt(bytes.NewReader(data))

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	original, err := encodeJPEG(img, originalQuality)
	if err != nil {
		return nil, fmt.Errorf("encoding photo: %w", err)
	}

	thumb := imaging.Fit(img, thumbMaxWidth, thumbMaxHeight, imaging.Lanczos)
	thumbData, err := encodeJPEG(thumb, thumbQuality)
	if err != nil {
		return nil, fmt.Errorf("encoding thumbnail: %w", err)
	}

	name := uuid.New().String() + ".jpg"

	filePath, err := p.saveFile("photos", name, original)
	if err != nil {
		return nil, fmt.Errorf("saving photo: %w", err)
	}

	thumbPath, err := p.saveFile("thumbs", name, thumbData)
	if err != nil {
		// Remove the orphaned original before failing
		_ = os.Remove(filePath)
		return nil, fmt.Errorf("saving thumbnail: %w", err)
	}

	return &EntryResult{
		FilePath:  filePath,
		ThumbPath: thumbPath,
		Width:     width,
		Height:    height,
		Size:      int64(len(original)),
		TakenAt:   takenAt,
	}, nil
}

// DeleteEntryFiles removes the stored original and thumbnail for an entry.
// Missing files are not an error; the database row may outlive the disk.
func (p *Processor) DeleteEntryFiles(filePath, thumbPath string) error {
	for _, path := range []string{filePath, thumbPath} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("deleting %s: %w", path, err)
		}
	}
	return nil
}

// GetImageDimensions returns the dimensions of an image file without
// decoding the full pixel data.
func (p *Processor) GetImageDimensions(path string) (width, height int, err error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("opening image: %w", err)
	}
	defer func() { _ = file.Close() }()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, fmt.Errorf("reading image config: %w", err)
	}

	return config.Width, config.Height, nil
}

// readExifOrientation reads the EXIF orientation tag from image data.
// Returns 1 (normal) if orientation cannot be determined.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}

	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}

	return orientation
}

// readExifTakenAt reads the capture timestamp from EXIF data.
func readExifTakenAt(r io.Reader) *time.Time {
	x, err := exif.Decode(r)
	if err != nil {
		return nil
	}

	t, err := x.DateTime()
	if err != nil {
		return nil
	}

	return &t
}

// applyOrientation applies EXIF orientation transformation to an image.
// Orientation values:
// 1: Normal
// 2: Flip horizontal
// 3: Rotate 180°
// 4: Flip vertical
// 5: Rotate 90° CW + flip horizontal
// 6: Rotate 90° CW
// 7: Rotate 90° CCW + flip horizontal
// 8: Rotate 90° CCW
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// isSupportedFormat checks the sniffed content type of raw bytes.
func isSupportedFormat(data []byte) bool {
	contentType := http.DetectContentType(data)
	// Explicitly reject TIFF (CVE-2023-36308 in disintegration/imaging)
	if strings.Contains(contentType, "tiff") {
		return false
	}
	switch {
	case strings.Contains(contentType, "jpeg"),
		strings.Contains(contentType, "png"),
		strings.Contains(contentType, "gif"),
		strings.Contains(contentType, "webp"):
		return true
	default:
		return false
	}
}

// saveFile creates the directory if needed and writes image data.
// The target is validated to be within uploadDir.
func (p *Processor) saveFile(subDir, filename string, data []byte) (string, error) {
	safeFilename := filepath.Base(filename)
	if safeFilename == "." || safeFilename == ".." || safeFilename == "" {
		return "", fmt.Errorf("invalid filename")
	}

	cleanSubDir := filepath.Clean(subDir)
	if strings.Contains(cleanSubDir, "..") || filepath.IsAbs(cleanSubDir) {
		return "", fmt.Errorf("invalid subdirectory path")
	}

	absBase, err := filepath.Abs(p.uploadDir)
	if err != nil {
		return "", fmt.Errorf("resolving base directory: %w", err)
	}

	absTarget := filepath.Join(absBase, cleanSubDir)

	rel, err := filepath.Rel(absBase, absTarget)
	if err != nil || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return "", fmt.Errorf("path traversal detected")
	}

	if err := os.MkdirAll(absTarget, 0755); err != nil {
		return "", fmt.Errorf("creating directory: %w", err)
	}

	filePath := filepath.Join(absTarget, safeFilename)
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("writing image: %w", err)
	}
	return filePath, nil
}
