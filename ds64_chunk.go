package bw64

import (
	"bytes"
	"fmt"
	"io"
)

const (
	ds64HeaderLength    = 28
	ds64TableEntryLength = 12
)

// DataSize64 is the ds64 sidecar: 64-bit overlays for the outer container
// size and the data chunk size, plus a sparse table of any other chunk
// whose true size overflows u32.
type DataSize64 struct {
	BW64Size  uint64
	DataSize  uint64
	DummySize uint64
	Table     map[FourCC]uint64
}

func newDataSize64() *DataSize64 {
	return &DataSize64{Table: make(map[FourCC]uint64)}
}

func (d *DataSize64) ID() FourCC { return idDs64 }

func (d *DataSize64) Size() uint64 {
	return uint64(ds64HeaderLength + len(d.Table)*ds64TableEntryLength)
}

// HasChunkSize reports whether id has a dedicated table entry (the outer
// container and data chunk are carried in their own fields, not here).
func (d *DataSize64) HasChunkSize(id FourCC) (uint64, bool) {
	v, ok := d.Table[id]
	return v, ok
}

func (d *DataSize64) Write(w io.Writer) error {
	const op = "DataSize64.Write"

	buf := new(bytes.Buffer)
	buf.Grow(int(d.Size()))

	if err := writeLE(buf, op, d.BW64Size); err != nil {
		return err
	}
	if err := writeLE(buf, op, d.DataSize); err != nil {
		return err
	}
	if err := writeLE(buf, op, d.DummySize); err != nil {
		return err
	}
	if err := writeLE(buf, op, uint32(len(d.Table))); err != nil {
		return err
	}

	for _, id := range sortedFourCCs(d.Table) {
		if err := writeFourCC(buf, op, id); err != nil {
			return err
		}
		if err := writeLE(buf, op, d.Table[id]); err != nil {
			return err
		}
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return newIOError(op, err)
	}

	return nil
}

// sortedFourCCs gives ds64's table a deterministic on-disk order.
func sortedFourCCs(m map[FourCC]uint64) []FourCC {
	ids := make([]FourCC, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}

	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && string(ids[j-1][:]) > string(ids[j][:]); j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}

	return ids
}

func parseDataSize64(r io.Reader, size uint64) (*DataSize64, error) {
	const op = "parseDataSize64"

	if size < ds64HeaderLength {
		return nil, newFormatError(op, fmt.Errorf("ds64 chunk size %d below minimum %d", size, ds64HeaderLength))
	}

	d := newDataSize64()

	if err := readLE(r, op, &d.BW64Size); err != nil {
		return nil, err
	}
	if err := readLE(r, op, &d.DataSize); err != nil {
		return nil, err
	}
	if err := readLE(r, op, &d.DummySize); err != nil {
		return nil, err
	}

	var tableLength uint32
	if err := readLE(r, op, &tableLength); err != nil {
		return nil, err
	}

	minSize := uint64(ds64HeaderLength) + uint64(tableLength)*ds64TableEntryLength
	if size < minSize {
		return nil, newFormatError(op, fmt.Errorf("ds64 chunk size %d too small for table length %d", size, tableLength))
	}

	for i := uint32(0); i < tableLength; i++ {
		id, err := readFourCC(r, op)
		if err != nil {
			return nil, err
		}

		var v uint64
		if err := readLE(r, op, &v); err != nil {
			return nil, err
		}

		d.Table[id] = v
	}

	if remaining := size - minSize; remaining > 0 {
		if _, err := io.CopyN(io.Discard, r, int64(remaining)); err != nil {
			return nil, newIOError(op, fmt.Errorf("skip trailing ds64 bytes: %w", err))
		}
	}

	return d, nil
}
