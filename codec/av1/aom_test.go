/*
NAME
  aom_test.go

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package av1

import (
	"bytes"
	"testing"

	"github.com/ausocean/avifenc/avif"
)

func TestParseIVF(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(make([]byte, ivfFileHeaderSize)) // File header contents are irrelevant to parseIVF.

	writeFrame := func(payload []byte) {
		var hdr [ivfFrameHeaderSize]byte
		hdr[0] = byte(len(payload))
		buf.Write(hdr[:])
		buf.Write(payload)
	}
	writeFrame([]byte{0xde, 0xad})
	writeFrame([]byte{0xbe, 0xef, 0x01})

	frames, err := parseIVF(buf.Bytes())
	if err != nil {
		t.Fatalf("parseIVF returned error: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if !bytes.Equal(frames[0], []byte{0xde, 0xad}) {
		t.Errorf("frame 0 = %x, want dead", frames[0])
	}
	if !bytes.Equal(frames[1], []byte{0xbe, 0xef, 0x01}) {
		t.Errorf("frame 1 = %x, want beef01", frames[1])
	}
}

func TestParseIVFTruncated(t *testing.T) {
	if _, err := parseIVF(make([]byte, ivfFileHeaderSize-1)); err == nil {
		t.Error("expected an error for data shorter than the file header")
	}
}

func TestEncodeY4MHeader(t *testing.T) {
	img := &avif.Image{Width: 4, Height: 2, Format: avif.Yuv420}
	img.Plane[avif.PlaneY] = make([]byte, 8)
	img.Plane[avif.PlaneU] = make([]byte, 2)
	img.Plane[avif.PlaneV] = make([]byte, 2)

	got := encodeY4M(img)
	wantPrefix := "YUV4MPEG2 W4 H2 F25:1 Ip A1:1 C420\nFRAME\n"
	if !bytes.HasPrefix(got, []byte(wantPrefix)) {
		t.Errorf("encodeY4M header = %q, want prefix %q", got, wantPrefix)
	}
	if len(got) != len(wantPrefix)+8+2+2 {
		t.Errorf("encodeY4M length = %d, want %d", len(got), len(wantPrefix)+12)
	}
}
