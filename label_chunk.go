package bw64

import (
	"bytes"
	"fmt"
	"io"
)

// LabelChunk is a `labl` sub-chunk of a LIST(adtl): the text attached to
// one cue point, joined back by CuePointID.
type LabelChunk struct {
	CuePointID uint32
	Text       string
}

func (l *LabelChunk) ID() FourCC { return idLabl }

func (l *LabelChunk) Size() uint64 {
	return uint64(4 + len(l.Text) + 1)
}

func (l *LabelChunk) Write(w io.Writer) error {
	const op = "LabelChunk.Write"

	buf := new(bytes.Buffer)
	buf.Grow(int(l.Size()))

	if err := writeLE(buf, op, l.CuePointID); err != nil {
		return err
	}

	buf.WriteString(l.Text)
	buf.WriteByte(0)

	if _, err := w.Write(buf.Bytes()); err != nil {
		return newIOError(op, err)
	}

	return nil
}

func parseLabelChunk(r io.Reader, size uint64) (*LabelChunk, error) {
	const op = "parseLabelChunk"

	if size < 5 {
		return nil, newFormatError(op, fmt.Errorf("labl chunk size %d below minimum 5", size))
	}

	l := &LabelChunk{}

	if err := readLE(r, op, &l.CuePointID); err != nil {
		return nil, err
	}

	rest := make([]byte, size-4)
	if err := readExact(r, op, rest); err != nil {
		return nil, err
	}

	if i := bytes.IndexByte(rest, 0); i >= 0 {
		rest = rest[:i]
	}
	l.Text = string(rest)

	return l, nil
}
