package bw64

import "io"

// UnknownChunk preserves an unrecognized chunk id and its raw bytes on
// read. The writer never re-emits it.
type UnknownChunk struct {
	RawID   FourCC
	Payload []byte
}

func (u *UnknownChunk) ID() FourCC { return u.RawID }

func (u *UnknownChunk) Size() uint64 { return uint64(len(u.Payload)) }

func (u *UnknownChunk) Write(w io.Writer) error {
	const op = "UnknownChunk.Write"

	if _, err := w.Write(u.Payload); err != nil {
		return newIOError(op, err)
	}

	return nil
}

func parseUnknownChunk(r io.Reader, id FourCC, size uint64) (*UnknownChunk, error) {
	const op = "parseUnknownChunk"

	data := make([]byte, size)
	if err := readExact(r, op, data); err != nil {
		return nil, err
	}

	return &UnknownChunk{RawID: id, Payload: data}, nil
}
