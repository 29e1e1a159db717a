/*
NAME
  boxes.go - assembles the top-level ISOBMFF box sequence (ftyp/meta/moov/
  mdat) from an encoder's finished items, per spec.md §4.7/§6.

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

// writeFtyp emits the "ftyp" box per spec.md §4.7.
func writeFtyp(w *Writer, isSequence bool, meta *Image, hasGainmap bool) error {
	if err := w.StartBox("ftyp"); err != nil {
		return err
	}
	majorBrand := "avif"
	if isSequence {
		majorBrand = "avis"
	}
	if err := w.WriteStr(majorBrand); err != nil {
		return err
	}
	if err := w.WriteU32(0); err != nil { // minor_version
		return err
	}

	brands := []string{"avif", "mif1", "miaf"}
	if isSequence {
		brands = append(brands, "avis", "msf1", "iso8")
	}
	switch {
	case meta.Format == Yuv420 && (meta.Depth == 8 || meta.Depth == 10):
		brands = append(brands, "MA1B")
	case meta.Format == Yuv444 && (meta.Depth == 8 || meta.Depth == 10):
		brands = append(brands, "MA1A")
	}
	if hasGainmap {
		brands = append(brands, "tmap")
	}
	for _, b := range brands {
		if err := w.WriteStr(b); err != nil {
			return err
		}
	}
	return w.FinishBox()
}

// writeMeta emits the "meta" box and all of its children, per spec.md §4.7
// and §6. primaryID is the top-level Color item's id.
func writeMeta(w *Writer, items []*Item, primaryID uint16) error {
	if err := w.StartFullBox("meta", 0, 0); err != nil {
		return err
	}
	if err := writeHdlr(w, "pict"); err != nil {
		return err
	}
	if err := writePitm(w, primaryID); err != nil {
		return err
	}
	ilocPatches, err := writeIloc(w, items)
	if err != nil {
		return err
	}
	for itemIdx, perItem := range ilocPatches {
		items[itemIdx].MdatOffsetLocations = append(items[itemIdx].MdatOffsetLocations, perItem...)
	}
	if err := writeIinf(w, items); err != nil {
		return err
	}
	if hasAnyIref(items) {
		if err := writeIref(w, items); err != nil {
			return err
		}
	}
	if err := writeIprp(w, items); err != nil {
		return err
	}
	return w.FinishBox()
}

// writePitm emits "pitm" naming the primary item.
func writePitm(w *Writer, primaryID uint16) error {
	if err := w.StartFullBox("pitm", 0, 0); err != nil {
		return err
	}
	if err := w.WriteU16(primaryID); err != nil {
		return err
	}
	return w.FinishBox()
}

// writeIloc emits "iloc" with offset_size=4, length_size=4,
// base_offset_size=0, one entry per item and one extent per item sample
// (or a single extent for metadata-only items), per spec.md §6. It
// returns, per item (by slice index matching items), the offsetPatch
// list recording where each extent's placeholder offset was written.
func writeIloc(w *Writer, items []*Item) ([][]offsetPatch, error) {
	if err := w.StartFullBox("iloc", 0, 0); err != nil {
		return nil, err
	}
	if err := w.WriteBits(4, 4); err != nil { // offset_size
		return nil, err
	}
	if err := w.WriteBits(4, 4); err != nil { // length_size
		return nil, err
	}
	if err := w.WriteBits(0, 4); err != nil { // base_offset_size
		return nil, err
	}
	if err := w.WriteBits(0, 4); err != nil { // reserved
		return nil, err
	}
	if err := w.WriteU16(uint16(len(items))); err != nil { // item_count
		return nil, err
	}

	patches := make([][]offsetPatch, len(items))
	for idx, it := range items {
		if err := w.WriteU16(it.ID); err != nil {
			return nil, err
		}
		if err := w.WriteU16(0); err != nil { // data_reference_index
			return nil, err
		}
		n := it.ilocExtentCount()
		if err := w.WriteU16(uint16(n)); err != nil { // extent_count
			return nil, err
		}
		itemPatches := make([]offsetPatch, 0, n)
		for i := 0; i < n; i++ {
			itemPatches = append(itemPatches, offsetPatch{pos: w.Offset(), sampleIdx: i})
			if err := w.WriteU32(0); err != nil { // extent_offset placeholder
				return nil, err
			}
			if err := w.WriteU32(uint32(it.extentLength(i))); err != nil { // extent_length
				return nil, err
			}
		}
		patches[idx] = itemPatches
	}
	return patches, w.FinishBox()
}

// writeIinf emits "iinf" with one "infe" per item.
func writeIinf(w *Writer, items []*Item) error {
	if err := w.StartFullBox("iinf", 0, 0); err != nil {
		return err
	}
	if err := w.WriteU16(uint16(len(items))); err != nil {
		return err
	}
	for _, it := range items {
		if err := writeInfe(w, it); err != nil {
			return err
		}
	}
	return w.FinishBox()
}

// writeInfe emits one "infe" version 2 entry for it.
func writeInfe(w *Writer, it *Item) error {
	var flags uint32
	if it.HiddenImage {
		flags = 1
	}
	if err := w.StartFullBox("infe", 2, flags); err != nil {
		return err
	}
	if err := w.WriteU16(it.ID); err != nil {
		return err
	}
	if err := w.WriteU16(0); err != nil { // item_protection_index
		return err
	}
	if err := w.WriteStr(it.ItemType); err != nil {
		return err
	}
	if it.ItemType == codecutil.Mime && it.InfeContentType != "" {
		if err := w.WriteStringWithNul(it.InfeContentType); err != nil {
			return err
		}
	}
	if err := w.WriteStringWithNul(it.InfeName); err != nil {
		return err
	}
	return w.FinishBox()
}

// hasAnyIref reports whether any item carries a reference edge.
func hasAnyIref(items []*Item) bool {
	for _, it := range items {
		if it.hasIref || it.hasDimgFrom {
			return true
		}
	}
	return false
}

// writeIref emits "iref" grouping same-type-and-source references into
// single SingleItemTypeReferenceBox entries, per spec.md §4.5.
func writeIref(w *Writer, items []*Item) error {
	if err := w.StartFullBox("iref", 0, 0); err != nil {
		return err
	}

	// dimg: one box per grid parent, listing all of its cells in order.
	dimgFrom := map[uint16][]uint16{}
	var dimgOrder []uint16
	for _, it := range items {
		if !it.hasDimgFrom {
			continue
		}
		if _, ok := dimgFrom[it.DimgFromID]; !ok {
			dimgOrder = append(dimgOrder, it.DimgFromID)
		}
		dimgFrom[it.DimgFromID] = append(dimgFrom[it.DimgFromID], it.ID)
	}
	for _, fromID := range dimgOrder {
		if err := writeSingleItemTypeReference(w, "dimg", fromID, dimgFrom[fromID]); err != nil {
			return err
		}
	}

	// auxl/prem/cdsc: one box per (item, type) pair, each with exactly one
	// reference.
	for _, it := range items {
		if !it.hasIref {
			continue
		}
		if err := writeSingleItemTypeReference(w, it.IrefType, it.ID, []uint16{it.IrefToID}); err != nil {
			return err
		}
	}

	return w.FinishBox()
}

// writeSingleItemTypeReference emits one SingleItemTypeReferenceBox of the
// given 4cc type, from fromID to each id in toIDs.
func writeSingleItemTypeReference(w *Writer, fourCC string, fromID uint16, toIDs []uint16) error {
	if err := w.StartBox(fourCC); err != nil {
		return err
	}
	if err := w.WriteU16(fromID); err != nil {
		return err
	}
	if err := w.WriteU16(uint16(len(toIDs))); err != nil {
		return err
	}
	for _, id := range toIDs {
		if err := w.WriteU16(id); err != nil {
			return err
		}
	}
	return w.FinishBox()
}

// writeIprp emits "iprp" containing "ipco" (deduplicated property blobs)
// and "ipma" (per-item associations referencing post-dedup indices), per
// spec.md §4.7 "Property deduplication".
func writeIprp(w *Writer, items []*Item) error {
	if err := w.StartBox("iprp"); err != nil {
		return err
	}

	var streams []propertyStream
	for _, it := range items {
		if err := it.collectPropertyStreams(&streams); err != nil {
			return err
		}
	}

	dedupIndex, uniqueStreams := dedupProperties(streams)

	if err := w.StartBox("ipco"); err != nil {
		return err
	}
	for _, s := range uniqueStreams {
		if err := w.WriteSlice(s.data); err != nil {
			return err
		}
	}
	if err := w.FinishBox(); err != nil {
		return err
	}

	if err := writeIpma(w, items, dedupIndex); err != nil {
		return err
	}

	return w.FinishBox() // iprp
}

// dedupProperties walks streams in order, coalescing byte-identical blobs.
// It returns a map from each stream's pre-dedup 1-based index to its
// final post-dedup 1-based index, plus the deduplicated blob list in
// emission order.
func dedupProperties(streams []propertyStream) (map[int]int, []propertyStream) {
	dedupIndex := make(map[int]int, len(streams))
	var unique []propertyStream
	seen := make(map[string]int, len(streams))
	for i, s := range streams {
		key := string(s.data)
		if idx, ok := seen[key]; ok {
			dedupIndex[i+1] = idx
			continue
		}
		unique = append(unique, s)
		idx := len(unique)
		seen[key] = idx
		dedupIndex[i+1] = idx
	}
	return dedupIndex, unique
}

// writeIpma emits "ipma" using each item's recorded associations,
// remapped through dedupIndex to final ipco indices.
func writeIpma(w *Writer, items []*Item, dedupIndex map[int]int) error {
	var withAssoc []*Item
	for _, it := range items {
		if len(it.associations) > 0 {
			withAssoc = append(withAssoc, it)
		}
	}

	if err := w.StartFullBox("ipma", 0, 0); err != nil {
		return err
	}
	if err := w.WriteU32(uint32(len(withAssoc))); err != nil {
		return err
	}
	for _, it := range withAssoc {
		if err := w.WriteU16(it.ID); err != nil {
			return err
		}
		if err := w.WriteU8(uint8(len(it.associations))); err != nil {
			return err
		}
		for _, a := range it.associations {
			finalIdx := dedupIndex[a.index]
			v := uint8(finalIdx) & 0x7F
			if a.essential {
				v |= 0x80
			}
			if err := w.WriteU8(v); err != nil {
				return err
			}
		}
	}
	return w.FinishBox()
}

// writeMvhd emits "mvhd" version 1 per spec.md §4.7/§6.
func writeMvhd(w *Writer, timescale uint32, duration uint64, nextTrackID uint32) error {
	if err := w.StartFullBox("mvhd", 1, 0); err != nil {
		return err
	}
	if err := w.WriteU64(0); err != nil { // creation_time
		return err
	}
	if err := w.WriteU64(0); err != nil { // modification_time
		return err
	}
	if err := w.WriteU32(timescale); err != nil {
		return err
	}
	if err := w.WriteU64(duration); err != nil {
		return err
	}
	if err := w.WriteU32(0x00010000); err != nil { // rate 1.0
		return err
	}
	if err := w.WriteU16(0x0100); err != nil { // volume 1.0
		return err
	}
	if err := w.WriteU16(0); err != nil { // reserved
		return err
	}
	for i := 0; i < 2; i++ {
		if err := w.WriteU32(0); err != nil { // reserved[2]
			return err
		}
	}
	if err := writeUnityMatrix(w); err != nil {
		return err
	}
	for i := 0; i < 6; i++ {
		if err := w.WriteU32(0); err != nil { // pre_defined[6]
			return err
		}
	}
	if err := w.WriteU32(nextTrackID); err != nil {
		return err
	}
	return w.FinishBox()
}
