/*
NAME
  grid.go - derives and serialises the ImageGrid ("grid") item payload used
  to tile multiple image cells into a single derived image.

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

// Grid describes an ISO/IEC 23008-12 §6.6.2.3.2 ImageGrid derivation: a
// rows x columns arrangement of equally sized cell images composited into
// one derived image of dimensions Width x Height.
type Grid struct {
	Rows, Columns int
	Width, Height int
}

// MaxGridCells bounds Grid.Rows and Grid.Columns, per spec.md §3.
const MaxGridCells = 256

// newGrid validates rows/columns and derives the grid's output dimensions
// from a cell image, per spec.md §4.6/§4.5. AddImageGrid already rejects
// any cell whose dimensions differ from the first via matchesMetadata, so
// every cell (including the last) shares one width and height here.
func newGrid(rows, columns int, cell *Image) (*Grid, error) {
	if rows < 1 || rows > MaxGridCells || columns < 1 || columns > MaxGridCells {
		return nil, newErr(InvalidImageGrid, "rows/columns must be in 1..=%d, got %dx%d", MaxGridCells, rows, columns)
	}
	return &Grid{
		Rows:    rows,
		Columns: columns,
		Width:   columns * cell.Width,
		Height:  rows * cell.Height,
	}, nil
}

// writeImageGrid serialises the ImageGrid payload per spec.md §4.6.
func writeImageGrid(g *Grid) ([]byte, error) {
	w := NewWriter()
	flags := uint8(0)
	if g.Width > 65535 || g.Height > 65535 {
		flags = 1
	}
	if err := w.WriteU8(0); err != nil { // version
		return nil, err
	}
	if err := w.WriteU8(flags); err != nil {
		return nil, err
	}
	if err := w.WriteU8(uint8(g.Rows - 1)); err != nil {
		return nil, err
	}
	if err := w.WriteU8(uint8(g.Columns - 1)); err != nil {
		return nil, err
	}
	if flags == 1 {
		if err := w.WriteU32(uint32(g.Width)); err != nil {
			return nil, err
		}
		if err := w.WriteU32(uint32(g.Height)); err != nil {
			return nil, err
		}
	} else {
		if err := w.WriteU16(uint16(g.Width)); err != nil {
			return nil, err
		}
		if err := w.WriteU16(uint16(g.Height)); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}
