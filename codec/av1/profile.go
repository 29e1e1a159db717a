/*
NAME
  profile.go - AV1 profile selection table, per spec.md §4.3.

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

import "github.com/ausocean/avifenc/avif"

// Profile selects the AV1 profile an adapter must configure its encoder
// session for.
//
//	depth  format    Color  Alpha
//	8/10   420/400    0      0
//	8/10   422        2      0
//	8/10   444        1      0
//	12     any        2      2
func Profile(depth int, format avif.PixelFormat, category avif.Category) int {
	if depth == 12 {
		return 2
	}
	if category == avif.Alpha {
		return 0
	}
	switch format {
	case avif.Yuv422:
		return 2
	case avif.Yuv444:
		return 1
	default:
		return 0
	}
}
