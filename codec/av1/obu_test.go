/*
NAME
  obu_test.go

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
)

func TestReadLeb128(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want int
	}{
		{"single byte", []byte{0x03}, 3},
		{"zero", []byte{0x00}, 0},
		{"two bytes", []byte{0xac, 0x02}, 300},
		{"max single byte", []byte{0x7f}, 127},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := readLeb128(bytes.NewReader(test.in))
			if err != nil {
				t.Fatalf("readLeb128(%x) returned error: %v", test.in, err)
			}
			if got != test.want {
				t.Errorf("readLeb128(%x) = %d, want %d", test.in, got, test.want)
			}
		})
	}
}

// TestParseSequenceHeaderReducedStillPicture exercises the
// reduced_still_picture_header path with a hand-packed single-OBU
// bitstream: seq_profile=0, reduced_still_picture_header=1,
// seq_level_idx[0]=0, 4:2:0 8-bit color_config with every optional flag
// clear.
func TestParseSequenceHeaderReducedStillPicture(t *testing.T) {
	data := []byte{0x0a, 0x03, 0x18, 0x00, 0x00}

	got, err := ParseSequenceHeader(data)
	if err != nil {
		t.Fatalf("ParseSequenceHeader returned error: %v", err)
	}
	if got.SeqProfile != 0 {
		t.Errorf("SeqProfile = %d, want 0", got.SeqProfile)
	}
	if got.SeqLevelIdx0 != 0 {
		t.Errorf("SeqLevelIdx0 = %d, want 0", got.SeqLevelIdx0)
	}
	if got.Monochrome {
		t.Error("Monochrome = true, want false")
	}
	if !got.ChromaSubsamplingX || !got.ChromaSubsamplingY {
		t.Error("expected 4:2:0 chroma subsampling for profile 0")
	}
	if got.HighBitdepth {
		t.Error("HighBitdepth = true, want false")
	}
}

func TestParseSequenceHeaderNoSequenceHeaderOBU(t *testing.T) {
	// A single OBU of a non-sequence-header type (obu_type=2, temporal
	// delimiter) with a zero-length payload.
	data := []byte{0x12, 0x00}
	if _, err := ParseSequenceHeader(data); err == nil {
		t.Error("expected an error when no sequence header OBU is present")
	}
}
