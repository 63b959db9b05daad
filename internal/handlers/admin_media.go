// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"petitpress/internal/imaging"
	"petitpress/internal/models"
	"petitpress/internal/storage"
)

// MediaConfig bundles the upload pipeline dependencies.
type MediaConfig struct {
	Storage   *storage.Client
	Processor *imaging.Processor
	MaxBytes  int64 // per-file ceiling, also bounds the whole request body
}

// uploadedImage is one entry in the upload response, shaped for the
// editor's image picker.
type uploadedImage struct {
	ID    string         `json:"id"`
	URL   string         `json:"url"`
	Sizes map[int]string `json:"sizes,omitempty"`
}

// MediaUpload accepts multipart image uploads from the editor. Each file is
// validated, stored, resized into width variants, and recorded as an
// unclaimed attachment. Files that fail validation are skipped; the response
// reports only the stored ones.
func (a *Admin) MediaUpload(w http.ResponseWriter, r *http.Request) {
	maxBytes := a.mediaConfig.MaxBytes

	// A single request may carry several files plus form fields.
	r.Body = http.MaxBytesReader(w, r.Body, 8*maxBytes+1024)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{"error": "Upload too large."})
		return
	}

	files := r.MultipartForm.File["images"]
	single := len(files) == 0
	if single {
		// The rich-text editor posts one file under "upload".
		files = r.MultipartForm.File["upload"]
	}
	if len(files) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "No file provided."})
		return
	}

	var stored []uploadedImage
	var skipped int
	for _, header := range files {
		img, err := a.storeUpload(header)
		if err != nil {
			skipped++
			slog.Warn("upload skipped", "file", header.Filename, "error", err)
			continue
		}
		stored = append(stored, *img)
	}

	if single {
		if len(stored) == 0 {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": "File is not a supported image or exceeds the size limit."})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"url": stored[0].URL})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"images":  stored,
		"skipped": skipped,
	})
}

// storeUpload validates one multipart file, writes the original and its
// resized variants to disk, and records the attachment.
func (a *Admin) storeUpload(header *multipart.FileHeader) (*uploadedImage, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	// The browser's declaration must name an allowed type before the bytes
	// are even sniffed; both gates have to agree.
	if declared := header.Header.Get("Content-Type"); !imaging.AllowedType(declared) {
		return nil, fmt.Errorf("%w: declared %q", imaging.ErrUnsupportedFormat, declared)
	}

	data, err := io.ReadAll(io.LimitReader(file, a.mediaConfig.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > a.mediaConfig.MaxBytes {
		return nil, imaging.ErrTooLarge
	}

	mimeType, err := a.mediaConfig.Processor.Validate(data)
	if err != nil {
		return nil, err
	}

	key := a.mediaConfig.Storage.UploadKey(header.Filename, time.Now())
	if err := a.mediaConfig.Storage.Save(key, data); err != nil {
		return nil, err
	}

	variants, err := a.mediaConfig.Processor.Variants(data)
	if err != nil {
		// The original is stored; serve it without variants.
		slog.Warn("variant generation failed", "file", header.Filename, "error", err)
		variants = nil
	}

	sizes := make(map[int]string, len(variants))
	for width, variant := range variants {
		variantKey := storage.VariantKey(key, width, imaging.VariantExt)
		if err := a.mediaConfig.Storage.Save(variantKey, variant); err != nil {
			slog.Warn("variant save failed", "key", variantKey, "error", err)
			continue
		}
		sizes[width] = a.mediaConfig.Storage.FileURL(variantKey)
	}

	// The caption defaults to the original file name (sans extension) so
	// annotated images get usable alt text until an editor writes one.
	caption := strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))

	att, err := a.attachments.Create(&models.Attachment{
		Description:  header.Filename,
		Link:         a.mediaConfig.Storage.FileURL(key),
		FilePath:     key,
		Type:         mimeType,
		DisplayStyle: models.DisplayDefault,
		Caption:      &caption,
		Sizes:        sizes,
	})
	if err != nil {
		return nil, err
	}

	return &uploadedImage{ID: att.ID.String(), URL: att.Link, Sizes: att.Sizes}, nil
}

// MediaCleanupOrphans deletes attachments that were uploaded but never
// referenced by a saved article, along with their files on disk.
func (a *Admin) MediaCleanupOrphans(w http.ResponseWriter, r *http.Request) {
	orphans, err := a.attachments.ListOrphaned(adminListLimit)
	if err != nil {
		slog.Error("list orphaned attachments failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "cleanup failed"})
		return
	}

	var deleted int
	for _, att := range orphans {
		if err := a.mediaConfig.Storage.Delete(att.FilePath); err != nil {
			slog.Warn("delete orphan file failed", "key", att.FilePath, "error", err)
			continue
		}
		for width := range att.Sizes {
			variantKey := storage.VariantKey(att.FilePath, width, imaging.VariantExt)
			if err := a.mediaConfig.Storage.Delete(variantKey); err != nil {
				slog.Warn("delete orphan variant failed", "key", variantKey, "error", err)
			}
		}
		if err := a.attachments.Delete(att.ID); err != nil {
			slog.Warn("delete orphan attachment failed", "attachment", att.ID, "error", err)
			continue
		}
		deleted++
	}

	slog.Info("orphaned attachments cleaned", "deleted", deleted)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json response failed", "error", err)
	}
}
