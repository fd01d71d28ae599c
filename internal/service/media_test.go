// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/olegiv/ocms-blog/internal/imaging"
	"github.com/olegiv/ocms-blog/internal/model"
	"github.com/olegiv/ocms-blog/internal/testutil"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestMediaService_Upload(t *testing.T) {
	dir := t.TempDir()
	st := testutil.NewMemStore()
	svc := NewMediaService(st, imaging.NewProcessor(dir), "https://cdn.example.com/", testutil.TestLoggerSilent())

	m, err := svc.Upload(context.Background(), File{Name: "my photo.png", Data: pngBytes(t, 20, 10)})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if m.MimeType != model.MimeTypePNG {
		t.Errorf("MimeType = %q, want %q", m.MimeType, model.MimeTypePNG)
	}
	if m.Width != 20 || m.Height != 10 {
		t.Errorf("size = %dx%d, want 20x10", m.Width, m.Height)
	}
	if m.Filename != "my_photo.png" {
		t.Errorf("Filename = %q, want %q", m.Filename, "my_photo.png")
	}
	wantURL := "https://cdn.example.com/uploads/originals/" + m.UUID + "/my_photo.png"
	if m.URL != wantURL {
		t.Errorf("URL = %q, want %q", m.URL, wantURL)
	}
	if _, err := os.Stat(filepath.Join(dir, "originals", m.UUID, "my_photo.png")); err != nil {
		t.Errorf("file not written: %v", err)
	}
	if len(st.Media) != 1 {
		t.Errorf("media rows = %d, want 1", len(st.Media))
	}
}

func TestMediaService_UploadRejects(t *testing.T) {
	svc := NewMediaService(testutil.NewMemStore(), imaging.NewProcessor(t.TempDir()), "", testutil.TestLoggerSilent())

	tests := []struct {
		name string
		file File
		want error
	}{
		{"text", File{Name: "notes.txt", Data: []byte("hello world")}, ErrFileType},
		{"too large", File{Name: "big.png", Data: make([]byte, MaxUploadSize+1)}, ErrFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), tt.file)
			if !errors.Is(err, tt.want) {
				t.Errorf("Upload() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMediaService_SaveImage(t *testing.T) {
	st := testutil.NewMemStore()
	svc := NewMediaService(st, imaging.NewProcessor(t.TempDir()), "", testutil.TestLoggerSilent())

	m, err := svc.SaveImage(context.Background(), imaging.Blob{
		Data: []byte("jpeg"), MimeType: model.MimeTypeJPEG, Filename: "intro.jpg", Width: 8, Height: 4,
	}, "Intro")
	if err != nil {
		t.Fatalf("SaveImage() error = %v", err)
	}
	if !strings.HasPrefix(m.URL, "/uploads/originals/") {
		t.Errorf("URL = %q, want relative /uploads/ path", m.URL)
	}
	if m.Alt != "Intro" || m.Size != 4 {
		t.Errorf("Alt = %q Size = %d", m.Alt, m.Size)
	}

	if _, err := svc.SaveImage(context.Background(), imaging.Blob{Filename: "x.jpg"}, ""); err == nil {
		t.Error("SaveImage() with no data should fail")
	}
}
