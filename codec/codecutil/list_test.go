/*
NAME
  list_test.go

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package codecutil

import "testing"

func TestIsValid(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{AV01, true},
		{Grid, true},
		{Exif, true},
		{Mime, true},
		{Tmap, true},
		{"h264", false},
		{"", false},
	}
	for _, test := range tests {
		if got := IsValid(test.in); got != test.want {
			t.Errorf("IsValid(%q) = %v, want %v", test.in, got, test.want)
		}
	}
}
