/*
NAME
  track.go - emits the ISOBMFF movie track (trak/mdia/minf/stbl) used to
  carry an image sequence's per-category timeline, per spec.md §4.5/§5.

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

// run is one (delta, count) run produced by run-length encoding a
// sequence of sample durations (stts).
type run struct {
	value uint32
	count uint32
}

// collapseRuns run-length encodes a sequence of uint32 values, used for
// stts sample_delta (stsc is written as one fixed entry without it). See spec.md §4.5
// "stts run-length encoding".
func collapseRuns(values []uint32) []run {
	var runs []run
	for _, v := range values {
		if n := len(runs); n > 0 && runs[n-1].value == v {
			runs[n-1].count++
			continue
		}
		runs = append(runs, run{value: v, count: 1})
	}
	return runs
}

// trackHandlerType returns the hdlr handler_type for a track carrying the
// given category: "pict" for color and gain-map tracks, "auxv" for an
// alpha track, matching the still-image hdlr convention extended to
// sequences.
func trackHandlerType(cat Category) string {
	if cat == Alpha {
		return "auxv"
	}
	return "pict"
}

// writeTrak emits one "trak" box for item, whose Samples carry the
// sequence's coded frames for its category, using durations (one entry
// per sample, in timescale units) and the shared movie timescale.
func writeTrak(w *Writer, trackID uint32, item *Item, meta *Image, durations []uint32, timescale uint32) error {
	if err := w.StartBox("trak"); err != nil {
		return err
	}

	var movieDuration uint32
	for _, d := range durations {
		movieDuration += d
	}
	if err := writeTkhd(w, trackID, meta, movieDuration); err != nil {
		return err
	}

	if err := w.StartBox("mdia"); err != nil {
		return err
	}
	if err := writeMdhd(w, timescale, durations); err != nil {
		return err
	}
	if err := writeHdlr(w, trackHandlerType(item.Category)); err != nil {
		return err
	}
	if err := w.StartBox("minf"); err != nil {
		return err
	}
	if err := writeVmhd(w); err != nil {
		return err
	}
	if err := writeDinf(w); err != nil {
		return err
	}
	if err := writeStbl(w, item, meta, durations); err != nil {
		return err
	}
	if err := w.FinishBox(); err != nil { // minf
		return err
	}
	if err := w.FinishBox(); err != nil { // mdia
		return err
	}

	return w.FinishBox() // trak
}

// writeTkhd emits "tkhd" version 0, with the identity matrix and meta's
// width and height as 16.16 fixed point.
func writeTkhd(w *Writer, trackID uint32, meta *Image, duration uint32) error {
	if err := w.StartFullBox("tkhd", 0, tkhdEnabled); err != nil {
		return err
	}
	if err := w.WriteU32(0); err != nil { // creation_time
		return err
	}
	if err := w.WriteU32(0); err != nil { // modification_time
		return err
	}
	if err := w.WriteU32(trackID); err != nil {
		return err
	}
	if err := w.WriteU32(0); err != nil { // reserved
		return err
	}
	if err := w.WriteU32(duration); err != nil {
		return err
	}
	for i := 0; i < 2; i++ {
		if err := w.WriteU32(0); err != nil { // reserved[2]
			return err
		}
	}
	if err := w.WriteU16(0); err != nil { // layer
		return err
	}
	if err := w.WriteU16(0); err != nil { // alternate_group
		return err
	}
	if err := w.WriteU16(0); err != nil { // volume
		return err
	}
	if err := w.WriteU16(0); err != nil { // reserved
		return err
	}
	if err := writeUnityMatrix(w); err != nil {
		return err
	}
	if err := w.WriteU32(uint32(meta.Width) << 16); err != nil {
		return err
	}
	if err := w.WriteU32(uint32(meta.Height) << 16); err != nil {
		return err
	}
	return w.FinishBox()
}

// tkhdEnabled is the tkhd flags value with the "track_enabled" bit set.
const tkhdEnabled = 0x000001

// writeUnityMatrix writes the 9-entry 16.16 fixed-point identity matrix
// used by both tkhd and mvhd, per spec.md §5: "matrix = identity with
// 0x40000000 in [8]".
func writeUnityMatrix(w *Writer) error {
	matrix := [9]uint32{0x00010000, 0, 0, 0, 0x00010000, 0, 0, 0, 0x40000000}
	for _, v := range matrix {
		if err := w.WriteU32(v); err != nil {
			return err
		}
	}
	return nil
}

// writeMdhd emits "mdhd" version 0 with the track's timescale and total
// duration (sum of per-sample durations).
func writeMdhd(w *Writer, timescale uint32, durations []uint32) error {
	var total uint32
	for _, d := range durations {
		total += d
	}
	if err := w.StartFullBox("mdhd", 0, 0); err != nil {
		return err
	}
	if err := w.WriteU32(0); err != nil { // creation_time
		return err
	}
	if err := w.WriteU32(0); err != nil { // modification_time
		return err
	}
	if err := w.WriteU32(timescale); err != nil {
		return err
	}
	if err := w.WriteU32(total); err != nil {
		return err
	}
	if err := w.WriteBits(0, 1); err != nil { // pad
		return err
	}
	if err := w.WriteBits(undLanguageCode, 15); err != nil { // packed ISO-639-2/T "und"
		return err
	}
	if err := w.WriteU16(0); err != nil { // pre_defined
		return err
	}
	return w.FinishBox()
}

// undLanguageCode is "und" ((c-0x60)<<10 per character) packed per
// ISO 639-2/T, the conventional unspecified-language code for a
// programmatically generated track.
const undLanguageCode = uint32(('u'-0x60)<<10 | ('n'-0x60)<<5 | ('d' - 0x60))

// writeHdlr emits "hdlr" for handlerType ("pict" or "auxv"), matching the
// meta-level hdlr's empty-name convention.
func writeHdlr(w *Writer, handlerType string) error {
	if err := w.StartFullBox("hdlr", 0, 0); err != nil {
		return err
	}
	if err := w.WriteU32(0); err != nil { // pre_defined
		return err
	}
	if err := w.WriteStr(handlerType); err != nil {
		return err
	}
	for i := 0; i < 3; i++ {
		if err := w.WriteU32(0); err != nil { // reserved[3]
			return err
		}
	}
	if err := w.WriteStringWithNul(""); err != nil { // name
		return err
	}
	return w.FinishBox()
}

// writeVmhd emits "vmhd" version 0, flags=1 (required by ISOBMFF).
func writeVmhd(w *Writer) error {
	if err := w.StartFullBox("vmhd", 0, 1); err != nil {
		return err
	}
	if err := w.WriteU16(0); err != nil { // graphicsmode
		return err
	}
	for i := 0; i < 3; i++ {
		if err := w.WriteU16(0); err != nil { // opcolor[3]
			return err
		}
	}
	return w.FinishBox()
}

// writeDinf emits a minimal "dinf" with one self-contained "url " entry
// in "dref", the standard empty-data-reference convention.
func writeDinf(w *Writer) error {
	if err := w.StartBox("dinf"); err != nil {
		return err
	}
	if err := w.StartFullBox("dref", 0, 0); err != nil {
		return err
	}
	if err := w.WriteU32(1); err != nil { // entry_count
		return err
	}
	if err := w.StartFullBox("url ", 0, 1); err != nil { // flags=1: media in this file
		return err
	}
	if err := w.FinishBox(); err != nil {
		return err
	}
	if err := w.FinishBox(); err != nil { // dref
		return err
	}
	return w.FinishBox() // dinf
}

// writeStbl emits "stbl" with stsd/stts/stsc/stsz/stco and, unless every
// sample is a sync sample, stss. See spec.md §4.5.
func writeStbl(w *Writer, item *Item, meta *Image, durations []uint32) error {
	if err := w.StartBox("stbl"); err != nil {
		return err
	}
	if err := writeStsd(w, item, meta); err != nil {
		return err
	}
	if err := writeStts(w, durations); err != nil {
		return err
	}
	if err := writeStsc(w, len(item.Samples)); err != nil {
		return err
	}
	if err := writeStsz(w, item.Samples); err != nil {
		return err
	}
	stcoOffsets, err := writeStco(w, item)
	if err != nil {
		return err
	}
	item.MdatOffsetLocations = append(item.MdatOffsetLocations, stcoOffsets...)
	if !allSync(item.Samples) {
		if err := writeStss(w, item.Samples); err != nil {
			return err
		}
	}
	return w.FinishBox()
}

// writeStsd emits "stsd" with a single "av01" sample entry carrying the
// item's av1C codec configuration.
func writeStsd(w *Writer, item *Item, meta *Image) error {
	if err := w.StartFullBox("stsd", 0, 0); err != nil {
		return err
	}
	if err := w.WriteU32(1); err != nil { // entry_count
		return err
	}
	if err := w.StartBox("av01"); err != nil {
		return err
	}
	for i := 0; i < 6; i++ {
		if err := w.WriteU8(0); err != nil { // reserved[6]
			return err
		}
	}
	if err := w.WriteU16(1); err != nil { // data_reference_index
		return err
	}
	if err := w.WriteU16(0); err != nil { // pre_defined
		return err
	}
	if err := w.WriteU16(0); err != nil { // reserved
		return err
	}
	for i := 0; i < 3; i++ {
		if err := w.WriteU32(0); err != nil { // pre_defined[3]
			return err
		}
	}
	if err := w.WriteU16(uint16(meta.Width)); err != nil {
		return err
	}
	if err := w.WriteU16(uint16(meta.Height)); err != nil {
		return err
	}
	if err := w.WriteU32(0x00480000); err != nil { // horizresolution 72dpi
		return err
	}
	if err := w.WriteU32(0x00480000); err != nil { // vertresolution 72dpi
		return err
	}
	if err := w.WriteU32(0); err != nil { // reserved
		return err
	}
	if err := w.WriteU16(1); err != nil { // frame_count
		return err
	}
	for i := 0; i < 32; i++ {
		if err := w.WriteU8(0); err != nil { // compressorname[32]
			return err
		}
	}
	if err := w.WriteU16(0x0018); err != nil { // depth
		return err
	}
	if err := w.WriteU16(0xFFFF); err != nil { // pre_defined
		return err
	}
	if item.CodecConfig != nil {
		av1c, err := writeAv1C(item.CodecConfig)
		if err != nil {
			return err
		}
		if err := w.WriteSlice(av1c); err != nil {
			return err
		}
	}
	if err := w.FinishBox(); err != nil { // av01
		return err
	}
	return w.FinishBox() // stsd
}

// writeStts emits "stts" after collapsing durations into runs.
func writeStts(w *Writer, durations []uint32) error {
	runs := collapseRuns(durations)
	if err := w.StartFullBox("stts", 0, 0); err != nil {
		return err
	}
	if err := w.WriteU32(uint32(len(runs))); err != nil {
		return err
	}
	for _, r := range runs {
		if err := w.WriteU32(r.count); err != nil {
			return err
		}
		if err := w.WriteU32(r.value); err != nil {
			return err
		}
	}
	return w.FinishBox()
}

// writeStsc emits "stsc" with one entry: every sample is its own chunk
// (samples_per_chunk=1), the simplest valid layout for one-sample-per-
// mdat-extent encoding.
func writeStsc(w *Writer, sampleCount int) error {
	if err := w.StartFullBox("stsc", 0, 0); err != nil {
		return err
	}
	if sampleCount == 0 {
		if err := w.WriteU32(0); err != nil { // entry_count
			return err
		}
		return w.FinishBox()
	}
	if err := w.WriteU32(1); err != nil { // entry_count
		return err
	}
	if err := w.WriteU32(1); err != nil { // first_chunk
		return err
	}
	if err := w.WriteU32(1); err != nil { // samples_per_chunk
		return err
	}
	if err := w.WriteU32(1); err != nil { // sample_description_index
		return err
	}
	return w.FinishBox()
}

// writeStsz emits "stsz" with an explicit per-sample size table.
func writeStsz(w *Writer, samples []Sample) error {
	if err := w.StartFullBox("stsz", 0, 0); err != nil {
		return err
	}
	if err := w.WriteU32(0); err != nil { // sample_size = 0 (table follows)
		return err
	}
	if err := w.WriteU32(uint32(len(samples))); err != nil {
		return err
	}
	for _, s := range samples {
		if err := w.WriteU32(uint32(len(s.Data))); err != nil {
			return err
		}
	}
	return w.FinishBox()
}

// writeStco emits "stco" with one placeholder chunk offset per sample,
// returning the offsetPatch list the caller must back-patch once mdat's
// layout is known.
func writeStco(w *Writer, item *Item) ([]offsetPatch, error) {
	if err := w.StartFullBox("stco", 0, 0); err != nil {
		return nil, err
	}
	if err := w.WriteU32(uint32(len(item.Samples))); err != nil {
		return nil, err
	}
	patches := make([]offsetPatch, 0, len(item.Samples))
	for i := range item.Samples {
		patches = append(patches, offsetPatch{pos: w.Offset(), sampleIdx: i})
		if err := w.WriteU32(0); err != nil { // placeholder
			return nil, err
		}
	}
	return patches, w.FinishBox()
}

// writeStss emits "stss" listing the 1-based sample numbers of every sync
// sample. Callers must skip this entirely when allSync reports true, per
// the stss-elision default in spec.md §4.5.
func writeStss(w *Writer, samples []Sample) error {
	if err := w.StartFullBox("stss", 0, 0); err != nil {
		return err
	}
	var syncNumbers []uint32
	for i, s := range samples {
		if s.Sync {
			syncNumbers = append(syncNumbers, uint32(i+1))
		}
	}
	if err := w.WriteU32(uint32(len(syncNumbers))); err != nil {
		return err
	}
	for _, n := range syncNumbers {
		if err := w.WriteU32(n); err != nil {
			return err
		}
	}
	return w.FinishBox()
}

// allSync reports whether every sample is a sync sample.
func allSync(samples []Sample) bool {
	for _, s := range samples {
		if !s.Sync {
			return false
		}
	}
	return true
}
