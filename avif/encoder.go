/*
NAME
  encoder.go - top-level orchestrator: the state machine that accumulates
  images into items across add_image, add_image_for_sequence and
  add_image_grid calls, drives codec adapters, and assembles the final byte stream on
  finish.

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
	"github.com/ausocean/avifenc/codec/codecutil"
	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"
)

// state identifies where in the lifecycle state machine an Encoder sits,
// per spec.md §4.8.
type state int

const (
	stateFresh state = iota
	stateSingleImage
	stateLayeredInProgress
	stateSequence
	stateGridOrLayeredGrid
	stateDone
)

// AdapterFactory constructs a fresh Adapter for one item. The orchestrator
// calls it once per codec-backed item created, never re-selecting an
// adapter for an existing item (spec.md §6).
type AdapterFactory func() Adapter

// Encoder is the AVIF encoder pipeline's orchestrator: the single
// stateful object a caller drives through add_image*/finish.
type Encoder struct {
	log        logging.Logger
	newAdapter AdapterFactory

	settings Settings
	state    state

	items  []*Item
	nextID uint16

	imageMetadata *Image
	gainMapMeta   *GainMapMetadata

	colorTopItem   *Item
	alphaTopItem   *Item
	gainmapTopItem *Item
	tmapItem       *Item

	primaryItemID uint16
	alphaPresent  bool

	durations []uint32

	layerCallCount int // add_image calls made so far, in layered mode.
}

// New constructs an Encoder. newAdapter is called once per codec-backed
// item to obtain a fresh Adapter instance; log receives structured
// progress and error detail throughout the encoder's lifetime.
func New(log logging.Logger, newAdapter AdapterFactory, opts ...Option) (*Encoder, error) {
	if newAdapter == nil {
		return nil, newErr(InvalidArgument, "newAdapter must not be nil")
	}
	e := &Encoder{
		log:        log,
		newAdapter: newAdapter,
		settings:   defaultSettings(),
		state:      stateFresh,
		nextID:     1,
	}
	for _, opt := range opts {
		if err := opt.apply(&e.settings); err != nil {
			return nil, errors.Wrap(err, "apply encoder option")
		}
	}
	return e, nil
}

// Configure applies mutable-setting options between add_image* calls. A
// fixed-setting option returns CannotChangeSetting once the encoder has
// left the Fresh state.
func (e *Encoder) Configure(opts ...Option) error {
	for _, opt := range opts {
		if opt.fixed && e.state != stateFresh {
			return newErr(CannotChangeSetting, "cannot change a fixed setting once encoding has started")
		}
		if err := opt.apply(&e.settings); err != nil {
			return err
		}
	}
	return nil
}

// allocID returns the next 1-based item id (spec.md §9 "arena+index
// pattern").
func (e *Encoder) allocID() uint16 {
	id := e.nextID
	e.nextID++
	return id
}

// AddImage adds img as a still image. If Settings.ExtraLayerCount > 0,
// repeated calls append successive progressive layers to the same items
// until ExtraLayerCount+1 calls have been made; further calls are an
// error. See spec.md §4.8.
func (e *Encoder) AddImage(img *Image) error {
	switch e.state {
	case stateFresh:
		if err := e.validateImage(img); err != nil {
			return err
		}
		if err := e.createItems(img, 1, 1); err != nil {
			return err
		}
		if err := e.encodeLayer(img); err != nil {
			return err
		}
		e.layerCallCount = 1
		if e.settings.ExtraLayerCount > 0 {
			e.state = stateLayeredInProgress
		} else {
			e.state = stateSingleImage
		}
		return nil

	case stateLayeredInProgress:
		if e.layerCallCount >= e.settings.ExtraLayerCount+1 {
			return newErr(InvalidArgument, "add_image called more than extra_layer_count+1 times")
		}
		if err := e.matchesMetadata(img); err != nil {
			return err
		}
		if err := e.encodeLayer(img); err != nil {
			return err
		}
		e.layerCallCount++
		if e.layerCallCount == e.settings.ExtraLayerCount+1 {
			e.state = stateSingleImage
		}
		return nil

	case stateSingleImage:
		return newErr(InvalidArgument, "add_image called more than extra_layer_count+1 times")

	default:
		return newErr(InvalidArgument, "add_image cannot be used once add_image_for_sequence or add_image_grid has been used")
	}
}

// AddImageForSequence appends img as the next frame of an image sequence,
// sync if this is the first frame or every keyframe_interval'th frame
// thereafter.
func (e *Encoder) AddImageForSequence(img *Image, durationInTimescale uint32) error {
	switch e.state {
	case stateFresh:
		if err := e.validateImage(img); err != nil {
			return err
		}
		if err := e.createItems(img, 1, 1); err != nil {
			return err
		}
		e.state = stateSequence
	case stateSequence:
		if err := e.matchesMetadata(img); err != nil {
			return err
		}
	default:
		return newErr(InvalidArgument, "add_image_for_sequence cannot be used once add_image or add_image_grid has been used")
	}

	frameIndex := len(e.durations)
	sync := frameIndex == 0
	if n := e.settings.KeyframeInterval; n > 0 && frameIndex%n == 0 {
		sync = true
	}
	if err := e.encodeSequenceFrame(img, sync); err != nil {
		return err
	}
	e.durations = append(e.durations, durationInTimescale)
	return nil
}

// AddImageGrid tiles a rows x columns arrangement of cell images into one
// grid item. Every element of cells must agree on dimensions, CICP, alpha
// presence, depth and format.
func (e *Encoder) AddImageGrid(rows, columns int, cells []*Image) error {
	if e.state != stateFresh {
		return newErr(InvalidArgument, "add_image_grid can only be used on a fresh encoder")
	}
	if len(cells) != rows*columns {
		return newErr(InvalidArgument, "cell count %d does not match rows*columns=%d", len(cells), rows*columns)
	}
	if len(cells) == 0 {
		return newErr(InvalidArgument, "no cell images supplied")
	}
	if err := e.validateImage(cells[0]); err != nil {
		return err
	}
	for _, c := range cells[1:] {
		if err := e.matchesMetadata(c); err != nil {
			return err
		}
	}
	if err := e.createItems(cells[0], rows, columns); err != nil {
		return err
	}
	if err := e.encodeGridCells(cells); err != nil {
		return err
	}
	e.state = stateGridOrLayeredGrid
	return nil
}

// validateImage rejects a nil or degenerate image and captures it as the
// encoder's reference image_metadata.
func (e *Encoder) validateImage(img *Image) error {
	if img == nil {
		return newErr(InvalidArgument, "image must not be nil")
	}
	if img.Width <= 0 || img.Height <= 0 {
		return newErr(InvalidArgument, "image dimensions must be positive, got %dx%d", img.Width, img.Height)
	}
	e.imageMetadata = img
	e.alphaPresent = img.HasPlane(PlaneA)
	if img.GainMap != nil {
		e.gainMapMeta = img.GainMapMetadata
	}
	return nil
}

// matchesMetadata enforces sequence-mode cross-frame compatibility
// (spec.md §4.8): CICP, alpha presence/premultiplication, dimensions,
// depth and format must match the first frame.
func (e *Encoder) matchesMetadata(img *Image) error {
	ref := e.imageMetadata
	switch {
	case img == nil:
		return newErr(InvalidArgument, "image must not be nil")
	case img.Width != ref.Width || img.Height != ref.Height:
		return newErr(InvalidArgument, "image dimensions %dx%d do not match first frame %dx%d", img.Width, img.Height, ref.Width, ref.Height)
	case img.Depth != ref.Depth:
		return newErr(InvalidArgument, "image depth %d does not match first frame depth %d", img.Depth, ref.Depth)
	case img.Format != ref.Format:
		return newErr(InvalidArgument, "image format does not match first frame")
	case img.CICP != ref.CICP:
		return newErr(InvalidArgument, "image CICP does not match first frame")
	case img.HasPlane(PlaneA) != e.alphaPresent:
		return newErr(InvalidArgument, "image alpha presence does not match first frame")
	case img.AlphaPremultiplied != ref.AlphaPremultiplied:
		return newErr(InvalidArgument, "image alpha_premultiplied does not match first frame")
	}
	return nil
}

// createItems builds the item/iref graph for the encoder's first
// add_image* call: one item per category (Color, optionally Alpha,
// optionally Gainmap), each possibly expanded into a grid of hidden
// cells, per spec.md §4.5.
func (e *Encoder) createItems(meta *Image, rows, columns int) error {
	colorItem, err := e.createCategoryItems(Color, meta, rows, columns)
	if err != nil {
		return err
	}
	e.colorTopItem = colorItem
	e.primaryItemID = colorItem.ID

	if e.alphaPresent {
		alphaItem, err := e.createCategoryItems(Alpha, meta, rows, columns)
		if err != nil {
			return err
		}
		alphaItem.setIrefTo(colorItem.ID, "auxl")
		if meta.AlphaPremultiplied {
			colorItem.setIrefTo(alphaItem.ID, "prem")
		}
		e.alphaTopItem = alphaItem
	}

	if meta.GainMap != nil {
		tmapItem, gainmapItem, err := e.createGainMapItems(colorItem.ID, meta.GainMap, meta.GainMapMetadata)
		if err != nil {
			return err
		}
		e.tmapItem = tmapItem
		e.gainmapTopItem = gainmapItem
	}

	return nil
}

// createCategoryItems creates either a single codec-backed item (when
// rows*columns == 1) or a "grid" item plus rows*columns hidden cell
// items, returning the category's top-level item.
func (e *Encoder) createCategoryItems(cat Category, meta *Image, rows, columns int) (*Item, error) {
	if rows*columns == 1 {
		item := e.newCodecItem(cat, meta)
		e.log.Debug("created item", "id", item.ID, "category", cat.String())
		return item, nil
	}

	grid, err := newGrid(rows, columns, meta)
	if err != nil {
		return nil, err
	}
	gridItem := &Item{
		ID:       e.allocID(),
		ItemType: codecutil.Grid,
		Category: cat,
		Meta:     meta,
		Grid:     grid,
	}
	payload, err := writeImageGrid(grid)
	if err != nil {
		return nil, err
	}
	gridItem.MetadataPayload = payload
	e.items = append(e.items, gridItem)

	for i := 0; i < rows*columns; i++ {
		cell := e.newCodecItem(cat, meta)
		cell.HiddenImage = true
		cell.CellIndex = i
		cell.setDimgFrom(gridItem.ID)
	}
	e.log.Debug("created grid item", "id", gridItem.ID, "cells", rows*columns, "category", cat.String())
	return gridItem, nil
}

// newCodecItem allocates a new codec-backed "av01" item for category,
// appends it to e.items, and returns it.
func (e *Encoder) newCodecItem(cat Category, meta *Image) *Item {
	item := &Item{
		ID:              e.allocID(),
		ItemType:        codecutil.AV01,
		Category:        cat,
		Meta:            meta,
		Codec:           e.newAdapter(),
		ExtraLayerCount: e.settings.ExtraLayerCount,
	}
	e.items = append(e.items, item)
	return item
}

// createGainMapItems builds the "tmap" metadata item and its associated
// coded gain-map image item. The tmap item's own payload is the
// serialised GainMapMetadata; its dimg reference points at the coded
// gain-map item, and it carries a "tmap" iref back to the base color
// item. See DESIGN.md for the rationale behind this wiring.
func (e *Encoder) createGainMapItems(colorTopID uint16, gainMap *Image, meta *GainMapMetadata) (*Item, *Item, error) {
	gainmapItem := e.newCodecItem(Gainmap, gainMap)
	gainmapItem.HiddenImage = true

	tmapItem := &Item{
		ID:       e.allocID(),
		ItemType: codecutil.Tmap,
		Category: Gainmap,
		Meta:     gainMap,
	}
	tmapItem.MetadataPayload = writeGainMapMetadata(meta)
	tmapItem.setIrefTo(colorTopID, "tmap")
	gainmapItem.setDimgFrom(tmapItem.ID)
	e.items = append(e.items, tmapItem)

	return tmapItem, gainmapItem, nil
}

// codecItemsByCategory returns e.items restricted to cat, in creation
// order, excluding the grid/tmap container items (those carry no codec).
func (e *Encoder) codecItemsByCategory(cat Category) []*Item {
	var out []*Item
	for _, it := range e.items {
		if it.Category == cat && it.ItemType == codecutil.AV01 {
			out = append(out, it)
		}
	}
	return out
}

// encodeLayer drives one progressive layer: an additional add_image call
// on a layered encoder encodes the same (single) color/alpha/gainmap item
// set with the same EncodeConfig.IsSingleImage=false.
func (e *Encoder) encodeLayer(img *Image) error {
	isSingle := e.settings.ExtraLayerCount == 0
	cfg := e.encodeConfig(isSingle)
	if err := e.encodeCategory(e.colorTopItem, img, Color, cfg); err != nil {
		return err
	}
	if e.alphaPresent {
		if err := e.encodeCategory(e.alphaTopItem, img, Alpha, cfg); err != nil {
			return err
		}
	}
	if e.gainmapTopItem != nil && img.GainMap != nil {
		if err := e.encodeCategory(e.gainmapTopItem, img.GainMap, Gainmap, cfg); err != nil {
			return err
		}
	}
	return nil
}

// encodeSequenceFrame drives one frame of a non-layered image sequence.
func (e *Encoder) encodeSequenceFrame(img *Image, sync bool) error {
	cfg := e.encodeConfig(true)
	cfg.ForceKeyframe = sync
	if err := e.encodeCategory(e.colorTopItem, img, Color, cfg); err != nil {
		return err
	}
	if e.alphaPresent {
		if err := e.encodeCategory(e.alphaTopItem, img, Alpha, cfg); err != nil {
			return err
		}
	}
	return nil
}

// encodeGridCells drives one encode per grid cell, per category.
func (e *Encoder) encodeGridCells(cells []*Image) error {
	cfg := e.encodeConfig(true)
	colorCells := e.codecItemsByCategory(Color)
	for i, cell := range cells {
		if err := e.encodeCellItem(colorCells[i], cell, Color, cfg); err != nil {
			return err
		}
	}
	if e.alphaPresent {
		alphaCells := e.codecItemsByCategory(Alpha)
		for i, cell := range cells {
			if err := e.encodeCellItem(alphaCells[i], cell, Alpha, cfg); err != nil {
				return err
			}
		}
	}
	return nil
}

// encodeConfig builds the EncodeConfig for the next adapter call.
func (e *Encoder) encodeConfig(isSingleImage bool) EncodeConfig {
	quantizer, err := qualityToQuantizer(e.settings.Quality)
	if err != nil {
		e.log.Warning("quality curve fit failed, using mid quantizer", "error", err.Error())
		quantizer = 32
	}
	return EncodeConfig{
		TileRowsLog2:        e.settings.TileRowsLog2,
		TileColumnsLog2:     e.settings.TileColumnsLog2,
		Quantizer:           quantizer,
		DisableLaggedOutput: isSingleImage,
		IsSingleImage:       isSingleImage,
		ExtraLayerCount:     e.settings.ExtraLayerCount,
	}
}

// categoryFailureKind maps a category to the error kind its encode
// failures are tagged with, per spec.md §7.
func categoryFailureKind(cat Category) Kind {
	switch cat {
	case Alpha:
		return EncodeAlphaFailed
	case Gainmap:
		return EncodeGainMapFailed
	default:
		return EncodeColorFailed
	}
}

// encodeCategory drives item's adapter for img and appends the resulting
// samples to item.Samples.
func (e *Encoder) encodeCategory(item *Item, img *Image, cat Category, cfg EncodeConfig) error {
	var out []Sample
	if err := item.Codec.EncodeImage(img, cat, cfg, &out); err != nil {
		return wrapErr(categoryFailureKind(cat), err, "encode %s image", cat)
	}
	item.Samples = append(item.Samples, out...)
	return nil
}

// encodeCellItem is encodeCategory specialised for a single grid cell.
func (e *Encoder) encodeCellItem(item *Item, cell *Image, cat Category, cfg EncodeConfig) error {
	return e.encodeCategory(item, cell, cat, cfg)
}

// Finish flushes every codec adapter, harvests av1C configuration, lays
// out all boxes, back-patches offsets, and returns the complete AVIF byte
// stream. After a successful Finish the encoder is terminal. See
// spec.md §4.7.
func (e *Encoder) Finish() ([]byte, error) {
	if e.state == stateDone {
		return nil, newErr(InvalidArgument, "finish called on an already-finished encoder")
	}
	if len(e.items) == 0 {
		return nil, newErr(NoContent, "finish called with no items")
	}
	if e.state == stateLayeredInProgress {
		return nil, newErr(InvalidArgument, "finish called before all %d layers were added", e.settings.ExtraLayerCount+1)
	}

	for _, item := range e.items {
		if item.Codec == nil {
			continue
		}
		var out []Sample
		if err := item.Codec.Finish(&out); err != nil {
			return nil, wrapErr(categoryFailureKind(item.Category), err, "finish codec for item %d", item.ID)
		}
		item.Samples = append(item.Samples, out...)
		if item.CodecConfig == nil && len(item.Samples) > 0 {
			hdr, err := parseSequenceHeaderFunc(item.Samples[0].Data)
			if err != nil {
				return nil, wrapErr(UnknownError, err, "parse av1C from item %d", item.ID)
			}
			item.CodecConfig = newCodecConfiguration(hdr)
		}
	}

	isSequence := e.settings.ExtraLayerCount == 0 && len(e.durations) > 1

	w := NewWriter()
	if err := writeFtyp(w, isSequence, e.imageMetadata, e.gainMapMeta != nil); err != nil {
		return nil, err
	}
	if err := writeMeta(w, e.items, e.primaryItemID); err != nil {
		return nil, err
	}
	if isSequence {
		timescale := e.settings.Timescale
		if err := e.writeMoov(w, timescale); err != nil {
			return nil, err
		}
	}
	if err := e.writeMdat(w); err != nil {
		return nil, err
	}

	e.state = stateDone
	e.log.Info("finished avif encode", "items", len(e.items), "bytes", w.Offset())
	return w.Bytes(), nil
}

// writeMoov emits "moov" with one trak per item that carries samples.
func (e *Encoder) writeMoov(w *Writer, timescale uint32) error {
	if err := w.StartBox("moov"); err != nil {
		return err
	}

	var totalDuration uint64
	for _, d := range e.durations {
		totalDuration += uint64(d)
	}
	nextTrackID := uint32(len(e.items) + 1)
	if err := writeMvhd(w, timescale, totalDuration, nextTrackID); err != nil {
		return err
	}

	var trackID uint32 = 1
	for _, item := range e.items {
		if len(item.Samples) == 0 {
			continue
		}
		if err := writeTrak(w, trackID, item, item.Meta, e.durations, timescale); err != nil {
			return err
		}
		trackID++
	}

	return w.FinishBox()
}

// writeMdat emits "mdat" in the three passes mandated by spec.md §4.7:
// metadata items, then Alpha/Gainmap coded items, then Color.
func (e *Encoder) writeMdat(w *Writer) error {
	if err := w.StartBox("mdat"); err != nil {
		return err
	}

	pass := func(match func(*Item) bool) error {
		for _, item := range e.items {
			if !match(item) {
				continue
			}
			chunkOffset := w.Offset()
			sampleOffsets := make([]int, 0, item.ilocExtentCount())
			if len(item.Samples) > 0 {
				for _, s := range item.Samples {
					sampleOffsets = append(sampleOffsets, w.Offset()-chunkOffset)
					if err := w.WriteSlice(s.Data); err != nil {
						return err
					}
				}
			} else {
				sampleOffsets = append(sampleOffsets, 0)
				if err := w.WriteSlice(item.MetadataPayload); err != nil {
					return err
				}
			}
			for _, patch := range item.MdatOffsetLocations {
				if err := w.WriteU32AtOffset(uint32(chunkOffset+sampleOffsets[patch.sampleIdx]), patch.pos); err != nil {
					return err
				}
			}
		}
		return nil
	}

	isMetadataOnly := func(it *Item) bool {
		return it.ItemType == codecutil.Exif || it.ItemType == codecutil.Mime || it.ItemType == codecutil.Tmap
	}
	if err := pass(isMetadataOnly); err != nil {
		return err
	}
	if err := pass(func(it *Item) bool {
		return !isMetadataOnly(it) && (it.Category == Alpha || it.Category == Gainmap)
	}); err != nil {
		return err
	}
	if err := pass(func(it *Item) bool {
		return !isMetadataOnly(it) && it.Category == Color
	}); err != nil {
		return err
	}

	return w.FinishBox()
}

// writeGainMapMetadata serialises GainMapMetadata into the "tmap" item's
// raw payload, per spec.md §3's Rational fields, using the bit-stream
// writer's big-endian integer helpers for each numerator/denominator
// pair.
func writeGainMapMetadata(m *GainMapMetadata) []byte {
	w := NewWriter()
	writeRational := func(r Rational) {
		_ = w.WriteU32(uint32(r.N))
		_ = w.WriteU32(r.D)
	}
	writeRational(m.BaseHdrHeadroom)
	writeRational(m.AlternateHdrHeadroom)
	for i := 0; i < 3; i++ {
		writeRational(m.Min[i])
		writeRational(m.Max[i])
		writeRational(m.Gamma[i])
		writeRational(m.BaseOffset[i])
		writeRational(m.AlternateOffset[i])
	}
	useBase := uint8(0)
	if m.UseBaseColorSpace {
		useBase = 1
	}
	_ = w.WriteU8(useBase)
	return w.Bytes()
}

// parseSequenceHeaderFunc is overridden by codec/av1 at program init via
// RegisterSequenceHeaderParser, avoiding an import cycle between avif and
// codec/av1 (codec/av1 imports avif for the Adapter contract).
var parseSequenceHeaderFunc = func([]byte) (*SequenceHeader, error) {
	return nil, newErr(NotImplemented, "no AV1 sequence header parser registered")
}

// RegisterSequenceHeaderParser installs the AV1 OBU sequence-header
// parser used by Finish to populate av1C. codec/av1 calls this from an
// init function.
func RegisterSequenceHeaderParser(fn func([]byte) (*SequenceHeader, error)) {
	parseSequenceHeaderFunc = fn
}
