package bw64

import (
	"bytes"
	"fmt"
	"io"
)

// ListChunk is a `LIST` chunk: a listType tag (typically `adtl`) followed
// by heterogeneous sub-chunks, each its own {id, size, body, pad} triple.
type ListChunk struct {
	ListType  FourCC
	SubChunks []Chunk
}

func (l *ListChunk) ID() FourCC { return idList }

func (l *ListChunk) Size() uint64 {
	var total uint64 = 4

	for _, c := range l.SubChunks {
		total += 8 + c.Size() + uint64(padSize(c.Size()))
	}

	return total
}

// Labels returns every labl sub-chunk, keyed by CuePointID — used by the
// Reader's associateCueLabels on read.
func (l *ListChunk) Labels() map[uint32]string {
	labels := make(map[uint32]string)

	for _, c := range l.SubChunks {
		if lab, ok := c.(*LabelChunk); ok {
			labels[lab.CuePointID] = lab.Text
		}
	}

	return labels
}

func (l *ListChunk) Write(w io.Writer) error {
	const op = "ListChunk.Write"

	buf := new(bytes.Buffer)
	buf.Grow(int(l.Size()))

	if err := writeFourCC(buf, op, l.ListType); err != nil {
		return err
	}

	for _, c := range l.SubChunks {
		if err := writeChunk(buf, op, c); err != nil {
			return err
		}
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return newIOError(op, err)
	}

	return nil
}

// NewAdtlListChunk wraps a set of non-empty cue labels into a LIST(adtl)
// of labl sub-chunks, the shape written during cue finalization.
func NewAdtlListChunk(labels map[uint32]string) *ListChunk {
	l := &ListChunk{ListType: idAdtl}

	for _, id := range sortedUint32Slice(labels) {
		l.SubChunks = append(l.SubChunks, &LabelChunk{CuePointID: id, Text: labels[id]})
	}

	return l
}

func sortedUint32Slice(m map[uint32]string) []uint32 {
	ids := make([]uint32, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}

	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}

	return ids
}

func parseListChunk(r io.Reader, size uint64) (*ListChunk, error) {
	const op = "parseListChunk"

	if size < 4 {
		return nil, newFormatError(op, fmt.Errorf("LIST chunk size %d below minimum 4", size))
	}

	l := &ListChunk{}

	listType, err := readFourCC(r, op)
	if err != nil {
		return nil, err
	}
	l.ListType = listType

	var consumed uint64 = 4
	for consumed < size {
		id, err := readFourCC(r, op)
		if err != nil {
			return nil, err
		}

		var subSize uint32
		if err := readLE(r, op, &subSize); err != nil {
			return nil, err
		}

		var sub Chunk
		if id == idLabl {
			sub, err = parseLabelChunk(r, uint64(subSize))
			if err != nil {
				return nil, err
			}
		} else {
			sub, err = parseUnknownChunk(r, id, uint64(subSize))
			if err != nil {
				return nil, err
			}
		}

		l.SubChunks = append(l.SubChunks, sub)

		consumed += 8 + uint64(subSize) + uint64(padSize(uint64(subSize)))
		if padSize(uint64(subSize)) == 1 {
			if _, err := io.CopyN(io.Discard, r, 1); err != nil {
				return nil, newIOError(op, fmt.Errorf("skip LIST sub-chunk pad: %w", err))
			}
		}
	}

	return l, nil
}
