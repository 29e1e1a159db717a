/*
NAME
  profile_test.go

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
	"testing"

	"github.com/ausocean/avifenc/avif"
)

func TestProfile(t *testing.T) {
	tests := []struct {
		depth    int
		format   avif.PixelFormat
		category avif.Category
		want     int
	}{
		{8, avif.Yuv420, avif.Color, 0},
		{8, avif.Yuv400, avif.Color, 0},
		{10, avif.Yuv422, avif.Color, 2},
		{8, avif.Yuv444, avif.Color, 1},
		{10, avif.Yuv444, avif.Alpha, 0},
		{12, avif.Yuv420, avif.Color, 2},
		{12, avif.Yuv444, avif.Alpha, 2},
	}
	for _, test := range tests {
		got := Profile(test.depth, test.format, test.category)
		if got != test.want {
			t.Errorf("Profile(%d, %v, %v) = %d, want %d", test.depth, test.format, test.category, got, test.want)
		}
	}
}
