/*
NAME
  main_test.go

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ausocean/avifenc/avif"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    avif.PixelFormat
		wantErr bool
	}{
		{"420", avif.Yuv420, false},
		{"422", avif.Yuv422, false},
		{"444", avif.Yuv444, false},
		{"400", avif.Yuv400, false},
		{"bogus", 0, true},
	}
	for _, test := range tests {
		got, err := parseFormat(test.in)
		if (err != nil) != test.wantErr {
			t.Errorf("parseFormat(%q) error = %v, wantErr %v", test.in, err, test.wantErr)
			continue
		}
		if err == nil && got != test.want {
			t.Errorf("parseFormat(%q) = %v, want %v", test.in, got, test.want)
		}
	}
}

func TestReadImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.yuv")

	// 4x2 luma, 2x1 chroma planes for 4:2:0.
	data := make([]byte, 8+2+2)
	for i := range data {
		data[i] = byte(i)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("could not write test fixture: %v", err)
	}

	img, err := readImage(path, 4, 2, 8, avif.Yuv420)
	if err != nil {
		t.Fatalf("readImage returned error: %v", err)
	}
	if len(img.Plane[avif.PlaneY]) != 8 {
		t.Errorf("Y plane length = %d, want 8", len(img.Plane[avif.PlaneY]))
	}
	if len(img.Plane[avif.PlaneU]) != 2 || len(img.Plane[avif.PlaneV]) != 2 {
		t.Errorf("chroma plane lengths = %d, %d, want 2, 2", len(img.Plane[avif.PlaneU]), len(img.Plane[avif.PlaneV]))
	}
	if img.Width != 4 || img.Height != 2 || img.Depth != 8 {
		t.Errorf("image dims = %dx%d depth %d, want 4x2 depth 8", img.Width, img.Height, img.Depth)
	}
}

func TestReadImageTooShort(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "short.yuv")
	if err := os.WriteFile(path, []byte{0x00}, 0o644); err != nil {
		t.Fatalf("could not write test fixture: %v", err)
	}
	if _, err := readImage(path, 4, 2, 8, avif.Yuv420); err == nil {
		t.Error("expected an error for truncated input")
	}
}
