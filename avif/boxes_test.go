/*
NAME
  boxes_test.go

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

func TestDedupPropertiesNoDuplicates(t *testing.T) {
	streams := []propertyStream{
		{data: []byte("a"), essential: true},
		{data: []byte("b"), essential: false},
	}
	dedupIndex, unique := dedupProperties(streams)
	if len(unique) != 2 {
		t.Fatalf("got %d unique streams, want 2", len(unique))
	}
	if dedupIndex[1] != 1 || dedupIndex[2] != 2 {
		t.Errorf("dedupIndex = %v, want {1:1, 2:2}", dedupIndex)
	}
}

func TestDedupPropertiesCoalescesIdenticalBlobs(t *testing.T) {
	streams := []propertyStream{
		{data: []byte("ispe-blob")},
		{data: []byte("pixi-blob")},
		{data: []byte("ispe-blob")}, // Same dimensions as item 1.
	}
	dedupIndex, unique := dedupProperties(streams)
	if len(unique) != 2 {
		t.Fatalf("got %d unique streams, want 2", len(unique))
	}
	if dedupIndex[1] != dedupIndex[3] {
		t.Errorf("identical blobs at index 1 and 3 should share a post-dedup index, got %v", dedupIndex)
	}
	if dedupIndex[1] == dedupIndex[2] {
		t.Errorf("distinct blobs should not share a post-dedup index, got %v", dedupIndex)
	}
}

func TestDedupPropertiesEmpty(t *testing.T) {
	dedupIndex, unique := dedupProperties(nil)
	if len(unique) != 0 || len(dedupIndex) != 0 {
		t.Errorf("dedupProperties(nil) = %v, %v, want empty", dedupIndex, unique)
	}
}
