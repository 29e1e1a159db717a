/*
NAME
  codecconfig.go - the AV1 codec configuration record fields needed to
  serialise an "av1C" item property, populated from a parsed AV1 sequence
  header OBU.

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

// av1CodecConfiguration holds the fields of an AV1CodecConfigurationRecord
// (ISO/IEC 23091-4 / AOM's "av1C" box), harvested from a coded sample's
// sequence header OBU by codec/av1.ParseSequenceHeader. See spec.md §4.3
// and §4.4.
type av1CodecConfiguration struct {
	SeqProfile            uint8
	SeqLevelIdx0          uint8
	SeqTier0              bool
	HighBitdepth          bool
	TwelveBit             bool
	Monochrome            bool
	ChromaSubsamplingX    bool
	ChromaSubsamplingY    bool
	ChromaSamplePosition  uint8
}

// SequenceHeader is the subset of a parsed AV1 sequence header OBU exposed
// across the package boundary between codec/av1 and avif.
type SequenceHeader struct {
	SeqProfile           uint8
	SeqLevelIdx0         uint8
	SeqTier0             bool
	HighBitdepth         bool
	TwelveBit            bool
	Monochrome           bool
	ChromaSubsamplingX   bool
	ChromaSubsamplingY   bool
	ChromaSamplePosition uint8
}

// newCodecConfiguration adapts a parsed SequenceHeader into the internal
// av1CodecConfiguration used by item property serialisation.
func newCodecConfiguration(h *SequenceHeader) *av1CodecConfiguration {
	return &av1CodecConfiguration{
		SeqProfile:           h.SeqProfile,
		SeqLevelIdx0:         h.SeqLevelIdx0,
		SeqTier0:             h.SeqTier0,
		HighBitdepth:         h.HighBitdepth,
		TwelveBit:            h.TwelveBit,
		Monochrome:           h.Monochrome,
		ChromaSubsamplingX:   h.ChromaSubsamplingX,
		ChromaSubsamplingY:   h.ChromaSubsamplingY,
		ChromaSamplePosition: h.ChromaSamplePosition,
	}
}
