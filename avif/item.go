/*
NAME
  item.go - the HEIF item model: a single logical entity (coded image tile,
  grid derivation, metadata blob, or gain-map tone-map) plus its item
  property payloads.

DESCRIPTION
  An Item accumulates compressed Samples across add_image* calls and, once
  finish is called, contributes a fixed ordered list of property byte blobs
  (ispe, pixi, av1C, colr/pasp/clap/irot/imir/clli or auxC) that the
  orchestrator deduplicates and writes into ipco/ipma. See spec.md §4.4 and
  §4.5.

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

import "github.com/ausocean/avifenc/codec/codecutil"

// propertyAssociation pairs a 1-based index into the pre-dedup property
// blob list with its "essential" flag, in the order it must be written to
// ipma.
type propertyAssociation struct {
	index     int
	essential bool
}

// Item is the central HEIF entity: an image tile, a grid derivation, or a
// metadata blob (Exif/XMP/gain-map tone-map payload).
type Item struct {
	ID       uint16
	ItemType string // 4cc: codecutil.AV01, .Grid, .Exif, .Mime or .Tmap.
	Category Category

	// Meta is the captured Image description (dimensions, CICP, colour
	// properties) this item's properties are derived from. Grid and
	// metadata-only items still carry one for ispe/pixi derivation.
	Meta *Image

	Codec   Adapter // Non-nil for codec-backed ("av01") items only.
	Samples []Sample

	CodecConfig *av1CodecConfiguration // Harvested from the first sample's OBUs at finish.

	Grid      *Grid
	CellIndex int

	HiddenImage bool
	InfeName    string

	// IrefToID/IrefType emit an iref box entry FROM this item of type
	// IrefType TO the item IrefToID.
	IrefToID  uint16
	IrefType  string
	hasIref   bool

	// DimgFromID causes a "dimg" reference FROM the ancestor item DimgFromID
	// TO this item to be emitted (grid cell -> grid parent).
	DimgFromID  uint16
	hasDimgFrom bool

	associations []propertyAssociation

	ExtraLayerCount int

	// MdatOffsetLocations records every byte position that must be
	// back-patched once this item's samples are laid out in mdat: each
	// entry names the writer offset to overwrite and which sample's
	// absolute offset belongs there.
	MdatOffsetLocations []offsetPatch

	MetadataPayload []byte // Raw payload for grid/Exif/XMP/tmap items.
	InfeContentType string // Used only for "mime" items.
}

func (it *Item) setIrefTo(id uint16, kind string) {
	it.IrefToID = id
	it.IrefType = kind
	it.hasIref = true
}

func (it *Item) setDimgFrom(id uint16) {
	it.DimgFromID = id
	it.hasDimgFrom = true
}

// offsetPatch names a byte position in an in-progress Writer buffer that
// must be overwritten, once mdat's layout is known, with the absolute
// offset of the given sample within this item's mdat run.
type offsetPatch struct {
	pos       int
	sampleIdx int
}

// ilocExtentCount is the number of iloc extents this item contributes:
// one per accumulated sample for a codec-backed item (a layered item
// carries one extent per progressive layer), or exactly one for a
// metadata-only item.
func (it *Item) ilocExtentCount() int {
	if n := len(it.Samples); n > 0 {
		return n
	}
	return 1
}

// extentLength returns the byte length of the n'th iloc extent.
func (it *Item) extentLength(n int) int {
	if len(it.Samples) > 0 {
		return len(it.Samples[n].Data)
	}
	return len(it.MetadataPayload)
}

// propertyStream is one property's serialised byte blob plus whether the
// association for it is essential, produced in item order before dedup.
type propertyStream struct {
	data      []byte
	essential bool
}

// collectPropertyStreams appends this item's property blobs, in emission
// order (ispe, pixi, av1C, then category-specific), to streams, and records
// each blob's pre-dedup 1-based index as a propertyAssociation on the item.
// See spec.md §4.4.
func (it *Item) collectPropertyStreams(streams *[]propertyStream) error {
	meta := it.Meta
	switch it.ItemType {
	case codecutil.AV01, codecutil.Grid, codecutil.Tmap:
	default:
		return nil // Exif/mime metadata items carry no ipma entries.
	}
	it.associations = it.associations[:0]

	add := func(data []byte, essential bool) {
		*streams = append(*streams, propertyStream{data: data, essential: essential})
		it.associations = append(it.associations, propertyAssociation{index: len(*streams), essential: essential})
	}

	ispe, err := writeIspe(it, meta)
	if err != nil {
		return err
	}
	add(ispe, true)

	pixi, err := writePixi(it, meta)
	if err != nil {
		return err
	}
	add(pixi, true)

	if it.ItemType == codecutil.AV01 && it.CodecConfig != nil {
		av1c, err := writeAv1C(it.CodecConfig)
		if err != nil {
			return err
		}
		add(av1c, true)
	}

	switch it.Category {
	case Color:
		add(writeColr(meta.CICP, meta.YuvRange), false)
		if meta.PASP != nil {
			add(writePasp(meta.PASP), false)
		}
		if meta.CLAP != nil {
			add(writeClap(meta.CLAP), false)
		}
		if meta.IrotAngle != nil {
			add(writeIrot(*meta.IrotAngle), false)
		}
		if meta.ImirAxis != nil {
			add(writeImir(*meta.ImirAxis), false)
		}
		if meta.CLLI != nil {
			add(writeClli(meta.CLLI), false)
		}
	case Alpha:
		add(writeAuxC(), false)
	}

	return nil
}

// writeIspe serialises the "ispe" (image spatial extents) property.
func writeIspe(it *Item, meta *Image) ([]byte, error) {
	w := NewWriter()
	if err := w.StartFullBox("ispe", 0, 0); err != nil {
		return nil, err
	}
	width, height := meta.Width, meta.Height
	if it.Grid != nil {
		width, height = it.Grid.Width, it.Grid.Height
	}
	if err := w.WriteU32(uint32(width)); err != nil {
		return nil, err
	}
	if err := w.WriteU32(uint32(height)); err != nil {
		return nil, err
	}
	if err := w.FinishBox(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// writePixi serialises the "pixi" (pixel information) property per
// spec.md §4.4.
func writePixi(it *Item, meta *Image) ([]byte, error) {
	w := NewWriter()
	if err := w.StartFullBox("pixi", 0, 0); err != nil {
		return nil, err
	}
	numChannels := meta.Format.PlaneCount()
	if it.Category == Alpha || meta.Format == Yuv400 {
		numChannels = 1
	}
	if err := w.WriteU8(uint8(numChannels)); err != nil {
		return nil, err
	}
	for i := 0; i < numChannels; i++ {
		if err := w.WriteU8(uint8(meta.Depth)); err != nil {
			return nil, err
		}
	}
	if err := w.FinishBox(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// writeColr serialises the "colr" (colour information) property using the
// "nclx" CICP form.
func writeColr(c CICP, r Range) []byte {
	w := NewWriter()
	_ = w.StartBox("colr")
	_ = w.WriteStr("nclx")
	_ = w.WriteU16(c.ColorPrimaries)
	_ = w.WriteU16(c.TransferCharacteristics)
	_ = w.WriteU16(c.MatrixCoefficients)
	fullRange := uint32(0)
	if r == Full {
		fullRange = 1
	}
	_ = w.WriteBits(fullRange, 1)
	_ = w.WriteBits(0, 7) // reserved
	_ = w.FinishBox()
	return w.Bytes()
}

// writeClli serialises the "clli" (content light level) property.
func writeClli(c *ContentLightLevel) []byte {
	w := NewWriter()
	_ = w.StartBox("clli")
	_ = w.WriteU16(c.MaxCLL)
	_ = w.WriteU16(c.MaxPALL)
	_ = w.FinishBox()
	return w.Bytes()
}

// writePasp serialises the "pasp" (pixel aspect ratio) property.
func writePasp(p *PixelAspectRatio) []byte {
	w := NewWriter()
	_ = w.StartBox("pasp")
	_ = w.WriteU32(p.HSpacing)
	_ = w.WriteU32(p.VSpacing)
	_ = w.FinishBox()
	return w.Bytes()
}

// writeClap serialises the "clap" (clean aperture) property.
func writeClap(c *CleanAperture) []byte {
	w := NewWriter()
	_ = w.StartBox("clap")
	for _, v := range []uint32{
		c.WidthN, c.WidthD,
		c.HeightN, c.HeightD,
		c.HorizOffN, c.HorizOffD,
		c.VertOffN, c.VertOffD,
	} {
		_ = w.WriteU32(v)
	}
	_ = w.FinishBox()
	return w.Bytes()
}

// writeIrot serialises the "irot" (image rotation) property.
func writeIrot(angle uint8) []byte {
	w := NewWriter()
	_ = w.StartBox("irot")
	_ = w.WriteBits(0, 6)
	_ = w.WriteBits(uint32(angle), 2)
	_ = w.FinishBox()
	return w.Bytes()
}

// writeImir serialises the "imir" (image mirror) property.
func writeImir(axis uint8) []byte {
	w := NewWriter()
	_ = w.StartBox("imir")
	_ = w.WriteBits(0, 7)
	_ = w.WriteBits(uint32(axis), 1)
	_ = w.FinishBox()
	return w.Bytes()
}

// auxAlphaURN is the auxiliary-type URN that identifies an "auxC" property
// as carrying an alpha plane, per the AVIF spec.
const auxAlphaURN = "urn:mpeg:mpegB:cicp:systems:auxiliary:alpha\x00"

// writeAuxC serialises the "auxC" (auxiliary type) property for an alpha
// item.
func writeAuxC() []byte {
	w := NewWriter()
	_ = w.StartFullBox("auxC", 0, 0)
	_ = w.WriteStr(auxAlphaURN)
	_ = w.FinishBox()
	return w.Bytes()
}

// writeAv1C serialises the "av1C" AV1 codec configuration record per
// spec.md §4.4.
func writeAv1C(c *av1CodecConfiguration) ([]byte, error) {
	w := NewWriter()
	if err := w.StartBox("av1C"); err != nil {
		return nil, err
	}
	if err := w.WriteBits(1, 1); err != nil { // marker
		return nil, err
	}
	if err := w.WriteBits(1, 7); err != nil { // version
		return nil, err
	}
	if err := w.WriteBits(uint32(c.SeqProfile), 3); err != nil {
		return nil, err
	}
	if err := w.WriteBits(uint32(c.SeqLevelIdx0), 5); err != nil {
		return nil, err
	}
	if err := w.WriteBits(b2u(c.SeqTier0), 1); err != nil {
		return nil, err
	}
	if err := w.WriteBits(b2u(c.HighBitdepth), 1); err != nil {
		return nil, err
	}
	if err := w.WriteBits(b2u(c.TwelveBit), 1); err != nil {
		return nil, err
	}
	if err := w.WriteBits(b2u(c.Monochrome), 1); err != nil {
		return nil, err
	}
	if err := w.WriteBits(b2u(c.ChromaSubsamplingX), 1); err != nil {
		return nil, err
	}
	if err := w.WriteBits(b2u(c.ChromaSubsamplingY), 1); err != nil {
		return nil, err
	}
	if err := w.WriteBits(uint32(c.ChromaSamplePosition), 2); err != nil {
		return nil, err
	}
	if err := w.WriteU8(0); err != nil { // reserved/IPD flags.
		return nil, err
	}
	if err := w.FinishBox(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
