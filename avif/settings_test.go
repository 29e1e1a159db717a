/*
NAME
  settings_test.go

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

func TestDefaultSettings(t *testing.T) {
	s := defaultSettings()
	if s.MaxThreads != 1 {
		t.Errorf("MaxThreads = %d, want 1", s.MaxThreads)
	}
	if s.Quality != 90 {
		t.Errorf("Quality = %d, want 90", s.Quality)
	}
	if s.ExtraLayerCount != 0 {
		t.Errorf("ExtraLayerCount = %d, want 0", s.ExtraLayerCount)
	}
}

func TestWithQualityValidation(t *testing.T) {
	tests := []struct {
		n       int
		wantErr bool
	}{
		{0, false},
		{100, false},
		{90, false},
		{-1, true},
		{101, true},
	}
	for _, test := range tests {
		s := defaultSettings()
		err := WithQuality(test.n).apply(&s)
		if (err != nil) != test.wantErr {
			t.Errorf("WithQuality(%d) error = %v, wantErr %v", test.n, err, test.wantErr)
		}
	}
}

func TestWithExtraLayerCountValidation(t *testing.T) {
	tests := []struct {
		n       int
		wantErr bool
	}{
		{0, false},
		{MaxAV1LayerCount - 1, false},
		{-1, true},
		{MaxAV1LayerCount, true},
	}
	for _, test := range tests {
		s := defaultSettings()
		err := WithExtraLayerCount(test.n).apply(&s)
		if (err != nil) != test.wantErr {
			t.Errorf("WithExtraLayerCount(%d) error = %v, wantErr %v", test.n, err, test.wantErr)
		}
	}
}

func TestWithMaxThreadsFixed(t *testing.T) {
	if !WithMaxThreads(4).fixed {
		t.Error("WithMaxThreads should produce a fixed option")
	}
	if WithQuality(50).fixed {
		t.Error("WithQuality should produce a mutable option")
	}
}

func TestWithTimescaleRejectsZero(t *testing.T) {
	s := defaultSettings()
	if err := WithTimescale(0).apply(&s); err == nil {
		t.Error("WithTimescale(0) should fail")
	}
}
