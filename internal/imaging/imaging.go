// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging validates uploaded images and produces resized variants
// for responsive delivery. Variants are generated at fixed widths, never
// upscaled, and re-encoded as JPEG.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// VariantWidths are the pixel widths generated for each upload, smallest
// first. A variant is only produced when the original is strictly wider.
var VariantWidths = []int{400, 800, 1200, 1600}

// VariantExt is the file extension of generated variants. Variants are
// re-encoded as JPEG regardless of the original format.
const VariantExt = ".jpg"

const jpegQuality = 85

// Validation failures. Upload handlers treat these as "skip this file",
// not as server errors.
var (
	ErrTooLarge          = errors.New("image exceeds size limit")
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// Processor validates and resizes uploaded images.
type Processor struct {
	maxBytes int64
}

// NewProcessor creates a processor that rejects files larger than maxBytes.
func NewProcessor(maxBytes int64) *Processor {
	return &Processor{maxBytes: maxBytes}
}

// AllowedType reports whether a client-declared content type names one of
// the accepted image formats. Declarations may carry parameters
// ("image/png; x=y"), which are ignored.
func AllowedType(declared string) bool {
	mediaType, _, _ := strings.Cut(declared, ";")
	switch strings.ToLower(strings.TrimSpace(mediaType)) {
	case "image/jpeg", "image/png", "image/webp", "image/gif":
		return true
	}
	return false
}

// Validate checks the upload's size and decodes its header without a full
// decode. Returns the detected MIME type on success. Only JPEG, PNG, WebP,
// and GIF are accepted.
func (p *Processor) Validate(data []byte) (string, error) {
	if int64(len(data)) > p.maxBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	switch format {
	case "jpeg", "png", "webp", "gif":
		return "image/" + format, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// Variants decodes the original and returns resized JPEG renditions keyed
// by width. Widths at or above the original width are skipped so images
// are never upscaled; a small original yields an empty map and the page
// falls back to the plain src attribute.
func (p *Processor) Variants(data []byte) (map[int][]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	originalWidth := img.Bounds().Dx()

	variants := make(map[int][]byte)
	for _, width := range VariantWidths {
		if width >= originalWidth {
			break
		}
		resized := imaging.Resize(img, width, 0, imaging.Lanczos)
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, fmt.Errorf("encode %dw variant: %w", width, err)
		}
		variants[width] = buf.Bytes()
	}
	return variants, nil
}
