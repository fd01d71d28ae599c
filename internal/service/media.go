// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/olegiv/ocms-blog/internal/imaging"
	"github.com/olegiv/ocms-blog/internal/model"
)

// MaxUploadSize bounds media accepted through the API.
const MaxUploadSize = 20 * 1024 * 1024 // 20MB

// ErrFileTooLarge is returned for uploads over MaxUploadSize.
var ErrFileTooLarge = errors.New("file size exceeds maximum allowed")

// ErrFileType is returned for uploads that are not a supported image.
var ErrFileType = errors.New("file type is not allowed")

// MediaStore persists media records.
type MediaStore interface {
	CreateMedia(ctx context.Context, m *model.Media) error
}

// File is an uploaded file held in memory.
type File struct {
	Name     string
	MimeType string
	Alt      string
	Data     []byte
}

// MediaService writes media files under the upload directory and records
// them in the store.
type MediaService struct {
	store     MediaStore
	processor *imaging.Processor
	publicURL string
	logger    *slog.Logger
}

// NewMediaService creates a media service. publicURL prefixes the /uploads
// path of every stored file and may be empty for relative URLs.
func NewMediaService(s MediaStore, processor *imaging.Processor, publicURL string, logger *slog.Logger) *MediaService {
	return &MediaService{
		store:     s,
		processor: processor,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
	}
}

// Upload validates and normalises an uploaded image, then stores it.
func (s *MediaService) Upload(ctx context.Context, f File) (*model.Media, error) {
	if len(f.Data) > MaxUploadSize {
		return nil, fmt.Errorf("%w (%d bytes)", ErrFileTooLarge, MaxUploadSize)
	}

	mimeType := s.processor.DetectMimeType(f.Data)
	if !s.processor.IsImage(mimeType) {
		return nil, fmt.Errorf("%w: %s", ErrFileType, mimeType)
	}

	blob, err := s.processor.ProcessUpload(bytes.NewReader(f.Data), f.Name)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupportedFormat) {
			return nil, fmt.Errorf("%w: %v", ErrFileType, err)
		}
		return nil, fmt.Errorf("failed to process image: %w", err)
	}
	return s.SaveImage(ctx, *blob, f.Alt)
}

// SaveImage stores an already encoded image. It is the media sink used by
// the post pipeline for generated covers.
func (s *MediaService) SaveImage(ctx context.Context, blob imaging.Blob, alt string) (*model.Media, error) {
	if len(blob.Data) == 0 {
		return nil, errors.New("empty image")
	}

	fileUUID := uuid.New().String()
	rel, err := s.processor.SaveFile(path.Join("originals", fileUUID), blob.Filename, blob.Data)
	if err != nil {
		return nil, err
	}

	m := &model.Media{
		UUID:     fileUUID,
		Filename: path.Base(rel),
		MimeType: blob.MimeType,
		Size:     int64(len(blob.Data)),
		Width:    blob.Width,
		Height:   blob.Height,
		Alt:      alt,
		URL:      s.URL(rel),
	}
	if err := s.store.CreateMedia(ctx, m); err != nil {
		// Clean up the file on error
		_ = os.RemoveAll(filepath.Join(s.processor.UploadDir(), "originals", fileUUID))
		return nil, fmt.Errorf("failed to create media record: %w", err)
	}

	s.logger.Debug("media stored", "media_id", m.ID, "url", m.URL, "size", m.Size)
	return m, nil
}

// URL returns the public URL of a path relative to the upload directory.
func (s *MediaService) URL(rel string) string {
	return s.publicURL + "/uploads/" + strings.TrimLeft(rel, "/")
}
