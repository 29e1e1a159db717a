/*
NAME
  adapter.go - defines the codec adapter contract an AV1 encoder back-end
  must fulfil to be driven by this package's orchestrator.

DESCRIPTION
  Adapter is intentionally a small capability set (encode + finish), in the
  spirit of this repo's device.AVDevice plugin shape: a concrete adapter
  (e.g. codec/av1.AomAdapter) owns its native codec state and is selected
  once per item at item-creation time, never re-selected.

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

// Category identifies the logical role of an Item/Image within an AVIF
// file: the primary colour image, its auxiliary alpha plane, or an HDR gain
// map.
type Category int

const (
	Color Category = iota
	Alpha
	Gainmap
)

func (c Category) String() string {
	switch c {
	case Color:
		return "color"
	case Alpha:
		return "alpha"
	case Gainmap:
		return "gainmap"
	default:
		return "unknown"
	}
}

// EncodeConfig carries the per-call parameters an Adapter needs to drive a
// single AV1 encode, per spec.md §4.3.
type EncodeConfig struct {
	TileRowsLog2        int
	TileColumnsLog2     int
	Quantizer           int
	DisableLaggedOutput bool
	IsSingleImage       bool

	// ExtraLayerCount is the number of enhancement layers beyond the base
	// layer; an Adapter driving a progressive item must emit exactly
	// ExtraLayerCount+1 samples per call to EncodeImage when IsSingleImage
	// is false with layering enabled, or exactly one sample otherwise.
	ExtraLayerCount int

	// ForceKeyframe requests a sync sample regardless of the adapter's
	// own keyframe_interval bookkeeping, used by sequence mode at frame 0
	// and every Settings.KeyframeInterval'th frame thereafter.
	ForceKeyframe bool
}

// Adapter is the capability contract a pluggable AV1 codec back-end
// fulfils. See spec.md §4.3 and §6.
type Adapter interface {
	// EncodeImage compresses img for the given category and configuration,
	// appending one or more resulting Samples to out.
	EncodeImage(img *Image, category Category, cfg EncodeConfig, out *[]Sample) error

	// Finish flushes any frames the adapter has buffered internally,
	// appending their Samples to the same destination EncodeImage used.
	// Implementations that buffer nothing may treat this as a no-op.
	Finish(out *[]Sample) error
}
