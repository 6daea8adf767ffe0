package bw64

import "io"

// AxmlChunk carries ADM XML as an opaque byte string; this package never
// parses or validates its contents.
type AxmlChunk struct {
	Data []byte
}

func (a *AxmlChunk) ID() FourCC { return idAxml }

func (a *AxmlChunk) Size() uint64 { return uint64(len(a.Data)) }

func (a *AxmlChunk) Write(w io.Writer) error {
	const op = "AxmlChunk.Write"

	if _, err := w.Write(a.Data); err != nil {
		return newIOError(op, err)
	}

	return nil
}

func parseAxmlChunk(r io.Reader, size uint64) (*AxmlChunk, error) {
	const op = "parseAxmlChunk"

	data := make([]byte, size)
	if err := readExact(r, op, data); err != nil {
		return nil, err
	}

	return &AxmlChunk{Data: data}, nil
}
