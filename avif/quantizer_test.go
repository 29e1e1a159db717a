/*
NAME
  quantizer_test.go

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

import "testing"

func TestQualityToQuantizer(t *testing.T) {
	tests := []struct {
		quality int
		want    int
	}{
		{0, 63},
		{20, 55},
		{50, 32},
		{75, 16},
		{90, 6},
		{100, 0},
		{-10, 63}, // clamped.
		{150, 0},  // clamped.
	}
	for _, test := range tests {
		got, err := qualityToQuantizer(test.quality)
		if err != nil {
			t.Errorf("qualityToQuantizer(%d) returned error: %v", test.quality, err)
			continue
		}
		if got != test.want {
			t.Errorf("qualityToQuantizer(%d) = %d, want %d", test.quality, got, test.want)
		}
	}
}

func TestQualityToQuantizerMonotonic(t *testing.T) {
	prev := -1
	for q := 100; q >= 0; q-- {
		got, err := qualityToQuantizer(q)
		if err != nil {
			t.Fatalf("qualityToQuantizer(%d) returned error: %v", q, err)
		}
		if got < prev {
			t.Errorf("quantizer decreased as quality decreased at quality=%d: got %d after %d", q, got, prev)
		}
		prev = got
	}
}
