// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging generates cover images and processes uploaded images.
package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/disintegration/imaging"

	"github.com/olegiv/ocms-blog/internal/ai"
	"github.com/olegiv/ocms-blog/internal/model"
	"github.com/olegiv/ocms-blog/internal/util"
)

// ErrGeneration is returned when the text-to-image call fails or its payload
// cannot be used.
var ErrGeneration = errors.New("image generation failed")

// coverQuality is the JPEG quality of generated covers and thumbnails.
const coverQuality = 85

// ImageClient calls a text-to-image endpoint.
type ImageClient interface {
	GenerateImage(ctx context.Context, req ai.ImageRequest) ([]byte, error)
}

// Cover is a generated cover image with its thumbnail.
type Cover struct {
	Image     Blob
	Thumbnail Blob
}

// Generator synthesizes cover images from a prompt.
type Generator struct {
	client         ImageClient
	width          int
	height         int
	thumbnailWidth int
	logger         *slog.Logger
}

// NewGenerator creates a Generator producing width×height covers and
// thumbnailWidth-wide thumbnails.
func NewGenerator(client ImageClient, width, height, thumbnailWidth int, logger *slog.Logger) *Generator {
	return &Generator{
		client:         client,
		width:          width,
		height:         height,
		thumbnailWidth: thumbnailWidth,
		logger:         logger,
	}
}

// Generate requests an image for prompt and returns it re-encoded as JPEG
// together with a thumbnail that keeps its aspect ratio.
func (g *Generator) Generate(ctx context.Context, prompt string) (*Cover, error) {
	data, err := g.client.GenerateImage(ctx, ai.ImageRequest{
		Prompt: prompt,
		Width:  g.width,
		Height: g.height,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding payload: %w", ErrGeneration, err)
	}

	base := util.Slugify(prompt)
	if base == "" {
		base = "cover"
	}

	cover, err := encodeJPEG(img, base+".jpg")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	thumbImg := img
	if img.Bounds().Dx() > g.thumbnailWidth {
		thumbImg = imaging.Resize(img, g.thumbnailWidth, 0, imaging.Lanczos)
	}
	thumb, err := encodeJPEG(thumbImg, base+"-thumbnail.jpg")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	g.logger.Debug("cover image generated", "prompt", prompt,
		"width", cover.Width, "height", cover.Height, "bytes", len(cover.Data))

	return &Cover{Image: *cover, Thumbnail: *thumb}, nil
}

func encodeJPEG(img image.Image, filename string) (*Blob, error) {
	data, err := encodeImage(img, "jpeg", coverQuality)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", filename, err)
	}
	b := img.Bounds()
	return &Blob{
		Data:     data,
		MimeType: model.MimeTypeJPEG,
		Filename: filename,
		Width:    b.Dx(),
		Height:   b.Dy(),
	}, nil
}
