/*
NAME
  codecconfig_test.go

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package avif

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewCodecConfiguration(t *testing.T) {
	h := &SequenceHeader{
		SeqProfile:           2,
		SeqLevelIdx0:         13,
		SeqTier0:             true,
		HighBitdepth:         true,
		TwelveBit:            true,
		Monochrome:           false,
		ChromaSubsamplingX:   true,
		ChromaSubsamplingY:   false,
		ChromaSamplePosition: 1,
	}
	got := newCodecConfiguration(h)
	want := &av1CodecConfiguration{
		SeqProfile:           2,
		SeqLevelIdx0:         13,
		SeqTier0:             true,
		HighBitdepth:         true,
		TwelveBit:            true,
		Monochrome:           false,
		ChromaSubsamplingX:   true,
		ChromaSubsamplingY:   false,
		ChromaSamplePosition: 1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("newCodecConfiguration(%+v) mismatch (-want +got):\n%s", h, diff)
	}
}
