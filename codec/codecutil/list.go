/*
NAME
  list.go

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package codecutil

// All available HEIF item types for reference in any application.
// When adding or removing an item type from this list, the IsValid function below must be updated.
const (
	AV01 = "av01" // AV1 coded image.
	Grid = "grid" // Derived grid image.
	Exif = "Exif" // Exif metadata.
	Mime = "mime" // MIME-typed metadata (e.g. XMP).
	Tmap = "tmap" // Tone-mapped (gain map) derived image.
)

// IsValid checks if a string is a known and valid item type in the right format.
func IsValid(s string) bool {
	switch s {
	case AV01, Grid, Exif, Mime, Tmap:
		return true
	default:
		return false
	}
}
