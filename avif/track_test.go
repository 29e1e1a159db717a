/*
NAME
  track_test.go

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
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestCollapseRuns(t *testing.T) {
	tests := []struct {
		name string
		in   []uint32
		want []run
	}{
		{"empty", nil, nil},
		{"single", []uint32{10}, []run{{value: 10, count: 1}}},
		{"constant", []uint32{10, 10, 10}, []run{{value: 10, count: 3}}},
		{
			"mixed",
			[]uint32{10, 10, 20, 20, 20, 10},
			[]run{{value: 10, count: 2}, {value: 20, count: 3}, {value: 10, count: 1}},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := collapseRuns(test.in)
			if diff := cmp.Diff(test.want, got, cmp.AllowUnexported(run{}), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("collapseRuns(%v) mismatch (-want +got):\n%s", test.in, diff)
			}
		})
	}
}

func TestTrackHandlerType(t *testing.T) {
	if got := trackHandlerType(Alpha); got != "auxv" {
		t.Errorf("trackHandlerType(Alpha) = %q, want auxv", got)
	}
	for _, cat := range []Category{Color, Gainmap} {
		if got := trackHandlerType(cat); got != "pict" {
			t.Errorf("trackHandlerType(%v) = %q, want pict", cat, got)
		}
	}
}

func TestAllSync(t *testing.T) {
	if !allSync([]Sample{{Sync: true}, {Sync: true}}) {
		t.Error("allSync should be true when every sample is sync")
	}
	if allSync([]Sample{{Sync: true}, {Sync: false}}) {
		t.Error("allSync should be false when any sample is not sync")
	}
	if !allSync(nil) {
		t.Error("allSync should be vacuously true for no samples")
	}
}
