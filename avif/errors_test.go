/*
NAME
  errors_test.go

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
	"errors"
	"testing"
)

func TestErrorIs(t *testing.T) {
	err := newErr(InvalidImageGrid, "cells must share dimensions")
	if !errors.Is(err, ErrInvalidImageGrid) {
		t.Error("errors.Is should match on Kind")
	}
	if errors.Is(err, ErrNoContent) {
		t.Error("errors.Is should not match a different Kind")
	}
}

func TestWrapErrUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := wrapErr(EncodeColorFailed, cause, "encode %s image", "color")
	if !errors.Is(err, ErrEncodeColorFailed) {
		t.Error("wrapErr should tag the given Kind")
	}
	if errors.Unwrap(err) != cause {
		t.Error("wrapErr should preserve the wrapped cause for errors.Unwrap")
	}
}

func TestErrorMessage(t *testing.T) {
	err := newErr(InvalidArgument, "quality must be in 0..=100, got %d", 200)
	want := "invalid argument: quality must be in 0..=100, got 200"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
