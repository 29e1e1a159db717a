/*
NAME
  avif.go - defines the core data model for AVIF encoding: images, pixel
  formats, colour metadata and compressed samples.

DESCRIPTION
  Image is the uncompressed input to the encoder; Sample is what a codec
  adapter returns for it.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package avif provides encoding of raster images into the AVIF (AV1 Image
// File Format) container, an ISOBMFF/HEIF structured file embedding
// AV1-compressed image payloads.
package avif

// PixelFormat describes the chroma subsampling of an Image's planar data.
type PixelFormat int

// Supported pixel formats.
const (
	Yuv420 PixelFormat = iota
	Yuv422
	Yuv444
	Yuv400
)

// PlaneCount returns the number of colour planes for the format (luma plus
// any chroma planes), not including any alpha plane.
func (f PixelFormat) PlaneCount() int {
	if f == Yuv400 {
		return 1
	}
	return 3
}

// ChromaShiftX and ChromaShiftY report the horizontal and vertical chroma
// subsampling shift for the format, used when deriving chroma plane
// dimensions from luma dimensions.
func (f PixelFormat) ChromaShiftX() int {
	switch f {
	case Yuv420, Yuv422, Yuv400:
		return 1
	default:
		return 0
	}
}

func (f PixelFormat) ChromaShiftY() int {
	switch f {
	case Yuv420, Yuv400:
		return 1
	default:
		return 0
	}
}

// Range describes the sample value range of an Image's planar data.
type Range int

// Supported sample ranges.
const (
	Limited Range = iota
	Full
)

// CICP holds the coding-independent code points used to describe an Image's
// colour interpretation, as defined by ITU-T H.273.
type CICP struct {
	ColorPrimaries          uint16
	TransferCharacteristics uint16
	MatrixCoefficients      uint16
}

// PixelAspectRatio is the "pasp" item property.
type PixelAspectRatio struct {
	HSpacing uint32
	VSpacing uint32
}

// CleanAperture is the "clap" item property.
type CleanAperture struct {
	WidthN, WidthD           uint32
	HeightN, HeightD         uint32
	HorizOffN, HorizOffD     uint32
	VertOffN, VertOffD       uint32
}

// ContentLightLevel is the "clli" item property.
type ContentLightLevel struct {
	MaxCLL uint16
	MaxPALL uint16
}

// Rational is a signed rational number as used by GainMapMetadata.
type Rational struct {
	N int32
	D uint32
}

// GainMapMetadata carries the ISO 21496-1 / MIAF gain map tone-mapping
// parameters that accompany a base image and its gain map image. See
// SPEC_FULL.md §3 for provenance.
type GainMapMetadata struct {
	BaseHdrHeadroom      Rational
	AlternateHdrHeadroom Rational
	Min                  [3]Rational
	Max                  [3]Rational
	Gamma                [3]Rational
	BaseOffset           [3]Rational
	AlternateOffset      [3]Rational
	UseBaseColorSpace    bool
}

// Plane identifies one of an Image's planar buffers.
type Plane int

const (
	PlaneY Plane = iota
	PlaneU
	PlaneV
	PlaneA
)

// Image is a single uncompressed raster frame together with the colour and
// transformative metadata needed to encode it into an AVIF item or track
// sample. Planar data is stored one slice per plane; row strides may exceed
// the plane width in sample units to allow for padding.
type Image struct {
	Width, Height int
	Depth         int // 8, 10 or 12.
	Format        PixelFormat
	YuvRange      Range
	ChromaSamplePosition uint8

	CICP CICP

	// Plane holds up to four planar buffers (Y, U, V, A), indexed by Plane.
	// Samples are stored as a byte per 8-bit sample, or two little-endian
	// bytes per 10/12-bit sample.
	Plane  [4][]byte
	Stride [4]int // Row stride in samples, per plane.

	AlphaPresent      bool
	AlphaPremultiplied bool

	// Optional transformative/metadata properties.
	CLLI *ContentLightLevel
	PASP *PixelAspectRatio
	CLAP *CleanAperture
	IrotAngle *uint8 // 0..=3, clockwise quarter turns.
	ImirAxis  *uint8 // 0 = vertical, 1 = horizontal.

	ICC  []byte
	Exif []byte
	XMP  []byte

	// GainMap, if non-nil, marks this Image as the base of an HDR image
	// accompanied by a gain map image and its tone-mapping metadata.
	GainMap         *Image
	GainMapMetadata *GainMapMetadata
}

// HasPlane reports whether p has non-empty data for the given plane.
func (img *Image) HasPlane(p Plane) bool {
	return len(img.Plane[p]) > 0
}

// Sample is a single compressed access unit produced by a codec adapter.
type Sample struct {
	Data []byte
	Sync bool // Keyframe / random-access point.
}
