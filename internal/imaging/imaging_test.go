// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

// testPNG renders a solid PNG of the given dimensions.
func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	return buf.Bytes()
}

func TestValidateAcceptsPNG(t *testing.T) {
	p := NewProcessor(10 << 20)

	mime, err := p.Validate(testPNG(t, 100, 100))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if mime != "image/png" {
		t.Errorf("mime: got %q, want image/png", mime)
	}
}

func TestValidateRejectsNonImage(t *testing.T) {
	p := NewProcessor(10 << 20)

	_, err := p.Validate([]byte("%PDF-1.7 definitely not an image"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestAllowedType(t *testing.T) {
	cases := []struct {
		declared string
		want     bool
	}{
		{"image/jpeg", true},
		{"image/png", true},
		{"image/webp", true},
		{"image/gif", true},
		{"IMAGE/PNG", true},
		{"image/png; name=photo.png", true},
		{"application/octet-stream", false},
		{"text/plain", false},
		{"image/svg+xml", false},
		{"", false},
	}
	for _, c := range cases {
		if got := AllowedType(c.declared); got != c.want {
			t.Errorf("AllowedType(%q) = %v, want %v", c.declared, got, c.want)
		}
	}
}

func TestValidateRejectsOversized(t *testing.T) {
	p := NewProcessor(64)

	_, err := p.Validate(testPNG(t, 100, 100))
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}

func TestVariantsSkipUpscaling(t *testing.T) {
	p := NewProcessor(10 << 20)

	// 1000px wide original: only the 400 and 800 variants apply.
	variants, err := p.Variants(testPNG(t, 1000, 500))
	if err != nil {
		t.Fatalf("Variants: %v", err)
	}
	if len(variants) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(variants))
	}
	for _, width := range []int{400, 800} {
		data, ok := variants[width]
		if !ok {
			t.Fatalf("missing %dw variant", width)
		}
		cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("decode %dw variant: %v", width, err)
		}
		if format != "jpeg" {
			t.Errorf("%dw variant format: got %q, want jpeg", width, format)
		}
		if cfg.Width != width {
			t.Errorf("%dw variant width: got %d", width, cfg.Width)
		}
	}
	if _, ok := variants[1200]; ok {
		t.Error("1200w variant must not be generated from a 1000px original")
	}
}

func TestVariantsPreserveAspectRatio(t *testing.T) {
	p := NewProcessor(10 << 20)

	variants, err := p.Variants(testPNG(t, 800, 400))
	if err != nil {
		t.Fatalf("Variants: %v", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(variants[400]))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Height != 200 {
		t.Errorf("height: got %d, want 200", cfg.Height)
	}
}

func TestVariantsSmallOriginal(t *testing.T) {
	p := NewProcessor(10 << 20)

	variants, err := p.Variants(testPNG(t, 300, 300))
	if err != nil {
		t.Fatalf("Variants: %v", err)
	}
	if len(variants) != 0 {
		t.Errorf("expected no variants for a 300px original, got %d", len(variants))
	}
}

func TestVariantsJPEGInput(t *testing.T) {
	p := NewProcessor(10 << 20)

	img := image.NewRGBA(image.Rect(0, 0, 500, 300))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode test jpeg: %v", err)
	}

	variants, err := p.Variants(buf.Bytes())
	if err != nil {
		t.Fatalf("Variants: %v", err)
	}
	if len(variants) != 1 {
		t.Errorf("expected one variant, got %d", len(variants))
	}
}
