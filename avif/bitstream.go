/*
NAME
  bitstream.go - provides an in-memory, big-endian ISOBMFF box writer with
  deferred length patching and sub-byte bit packing.

DESCRIPTION
  Writer maintains a stack of open boxes, each represented by the byte
  offset at which its 32-bit length placeholder was written. finishBox pops
  the stack and overwrites the placeholder with the box's total length,
  mirroring the start_box/finish_box discipline of an ISOBMFF muxer.

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

import "encoding/binary"

// Writer is an append-only byte buffer with a box-writing discipline and a
// bit-level packer for sub-byte fields.
type Writer struct {
	buf []byte

	boxStack []int // Offsets of open boxes' length placeholders.

	pendingByte byte
	pendingBits int // Number of valid bits already packed into pendingByte.
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 4096)}
}

// Bytes returns the writer's accumulated buffer. It must only be called
// once byte-aligned (no partially-written bit field pending).
func (w *Writer) Bytes() []byte { return w.buf }

// Offset returns the current byte position in the buffer.
func (w *Writer) Offset() int { return len(w.buf) }

// StartBox reserves a 4-byte length placeholder, writes the 4-character
// box type, and pushes the box onto the open-box stack.
func (w *Writer) StartBox(fourCC string) error {
	if len(fourCC) != 4 {
		return newErr(UnknownError, "box type %q is not 4 characters", fourCC)
	}
	w.boxStack = append(w.boxStack, len(w.buf))
	w.writeU32(0) // Placeholder length.
	w.writeStr(fourCC)
	return nil
}

// StartFullBox is StartBox plus the version/flags field common to "full
// boxes": a 32-bit field packing an 8-bit version and 24-bit flags.
func (w *Writer) StartFullBox(fourCC string, version uint8, flags uint32) error {
	if err := w.StartBox(fourCC); err != nil {
		return err
	}
	w.writeU32(uint32(version)<<24 | (flags & 0x00FFFFFF))
	return nil
}

// FinishBox pops the most recently opened box and back-patches its length.
func (w *Writer) FinishBox() error {
	if w.pendingBits != 0 {
		return newErr(UnknownError, "finishBox called with unflushed bits pending")
	}
	if len(w.boxStack) == 0 {
		return newErr(UnknownError, "finishBox called with no open box")
	}
	start := w.boxStack[len(w.boxStack)-1]
	w.boxStack = w.boxStack[:len(w.boxStack)-1]
	length := len(w.buf) - start
	binary.BigEndian.PutUint32(w.buf[start:start+4], uint32(length))
	return nil
}

// WriteU8 writes a single byte. It must only be called byte-aligned.
func (w *Writer) WriteU8(v uint8) error {
	if err := w.assertAligned(); err != nil {
		return err
	}
	w.buf = append(w.buf, v)
	return nil
}

func (w *Writer) WriteU16(v uint16) error {
	if err := w.assertAligned(); err != nil {
		return err
	}
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
	return nil
}

func (w *Writer) WriteU32(v uint32) error {
	if err := w.assertAligned(); err != nil {
		return err
	}
	w.writeU32(v)
	return nil
}

func (w *Writer) WriteU64(v uint64) error {
	if err := w.assertAligned(); err != nil {
		return err
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
	return nil
}

// writeU32 is the unchecked, always-aligned helper used internally for
// length placeholders (which are written before alignment can be an issue).
func (w *Writer) writeU32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteSlice appends a raw byte slice. Must be byte-aligned.
func (w *Writer) WriteSlice(b []byte) error {
	if err := w.assertAligned(); err != nil {
		return err
	}
	w.buf = append(w.buf, b...)
	return nil
}

// WriteStr appends s with no terminator. Must be byte-aligned.
func (w *Writer) WriteStr(s string) error {
	if err := w.assertAligned(); err != nil {
		return err
	}
	w.writeStr(s)
	return nil
}

func (w *Writer) writeStr(s string) {
	w.buf = append(w.buf, s...)
}

// WriteStringWithNul appends s followed by a single 0x00 terminator.
func (w *Writer) WriteStringWithNul(s string) error {
	if err := w.assertAligned(); err != nil {
		return err
	}
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
	return nil
}

// WriteBits packs the low n bits of v into the buffer, most-significant
// bit first, auto-flushing whole bytes as they complete.
func (w *Writer) WriteBits(v uint32, n int) error {
	if n < 0 || n > 32 {
		return newErr(UnknownError, "invalid bit count %d", n)
	}
	for i := n - 1; i >= 0; i-- {
		bit := byte((v >> uint(i)) & 1)
		w.pendingByte = w.pendingByte<<1 | bit
		w.pendingBits++
		if w.pendingBits == 8 {
			w.buf = append(w.buf, w.pendingByte)
			w.pendingByte = 0
			w.pendingBits = 0
		}
	}
	return nil
}

// WriteU32AtOffset overwrites 4 bytes at an absolute offset previously
// recorded via Offset, used to back-patch iloc extents and stco entries
// once the referenced data's position within mdat is known.
func (w *Writer) WriteU32AtOffset(v uint32, offset int) error {
	if offset < 0 || offset+4 > len(w.buf) {
		return newErr(UnknownError, "offset %d out of range", offset)
	}
	binary.BigEndian.PutUint32(w.buf[offset:offset+4], v)
	return nil
}

func (w *Writer) assertAligned() error {
	if w.pendingBits != 0 {
		return newErr(UnknownError, "byte-level write attempted with %d bits pending", w.pendingBits)
	}
	return nil
}
