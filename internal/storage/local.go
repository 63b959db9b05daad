// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage provides a local-disk media store. Files live under a
// single media root, keyed by relative paths like uploads/2026/08/name.jpg,
// and are served by the HTTP layer under a configurable URL prefix.
package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"petitpress/internal/slug"
)

// Client stores and serves media files from a directory on disk.
type Client struct {
	root      string // absolute or relative media root directory
	publicURL string // URL prefix files are served under, e.g. /media
}

// New creates a local storage client rooted at the given directory. The
// root is created if missing.
func New(root, publicURL string) (*Client, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &Client{
		root:      root,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// Root returns the media root directory.
func (c *Client) Root() string {
	return c.root
}

// UploadKey builds a storage key for a new upload: the original filename is
// slugified, suffixed with a short random token to avoid collisions, and
// placed in a year/month directory.
func (c *Client) UploadKey(filename string, now time.Time) string {
	ext := strings.ToLower(path.Ext(filename))
	base := slug.Generate(strings.TrimSuffix(filename, path.Ext(filename)))
	if base == "" {
		base = "upload"
	}
	return fmt.Sprintf("uploads/%04d/%02d/%s-%s%s",
		now.Year(), int(now.Month()), base, randomToken(), ext)
}

// VariantKey derives the storage key for a resized variant of an original,
// e.g. uploads/2026/08/photo-ab12cd34_800w.jpg. The extension is replaced
// because variants are re-encoded.
func VariantKey(originalKey string, width int, ext string) string {
	trimmed := strings.TrimSuffix(originalKey, path.Ext(originalKey))
	return fmt.Sprintf("%s_%dw%s", trimmed, width, ext)
}

// Save writes data under the given key, creating parent directories as
// needed. Keys are cleaned and confined to the media root.
func (c *Client) Save(key string, data []byte) error {
	p, err := c.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create media dir: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("write media file %s: %w", key, err)
	}
	return nil
}

// Read returns the contents of the file stored under key.
func (c *Client) Read(key string) ([]byte, error) {
	p, err := c.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read media file %s: %w", key, err)
	}
	return data, nil
}

// Delete removes the file stored under key. Missing files are not an error
// so attachment cleanup stays idempotent.
func (c *Client) Delete(key string) error {
	p, err := c.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete media file %s: %w", key, err)
	}
	return nil
}

// FileURL returns the public URL for a stored key.
func (c *Client) FileURL(key string) string {
	return c.publicURL + "/" + key
}

// ExtractKey extracts the storage key from a public file URL. Returns the
// key and true if the URL belongs to this store, or ("", false) otherwise.
func (c *Client) ExtractKey(rawURL string) (string, bool) {
	prefix := c.publicURL + "/"
	if strings.HasPrefix(rawURL, prefix) {
		return rawURL[len(prefix):], true
	}
	return "", false
}

// resolve maps a storage key to an on-disk path, rejecting keys that would
// escape the media root.
func (c *Client) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)[1:]
	if clean == "" || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid media key %q", key)
	}
	return filepath.Join(c.root, filepath.FromSlash(clean)), nil
}

// randomToken returns 4 random bytes hex-encoded (8 characters).
func randomToken() string {
	b := make([]byte, 4)
	rand.Read(b)
	return hex.EncodeToString(b)
}
