package bw64

import (
	"bytes"
	"fmt"
	"io"
)

// maxNumberOfUIDs bounds the chna placeholder a Writer reserves up front;
// SetChnaChunk fails with CapacityError above this.
const maxNumberOfUIDs = 1024

const (
	audioIDUIDLength      = 12
	audioIDTrackRefLength = 14
	audioIDPackRefLength  = 11
	audioIDWireSize       = 2 + audioIDUIDLength + audioIDTrackRefLength + audioIDPackRefLength + 1
)

// AudioID binds one track index to its ADM identifiers. UID/TrackRef/
// PackRef are fixed-width ASCII fields, NUL-padded on write.
type AudioID struct {
	TrackIndex uint16
	UID        string
	TrackRef   string
	PackRef    string
}

// ChnaChunk is the channel-allocation chunk: numTracks/numUids derived
// from the AudioID list, written as a u16 pair ahead of the records.
type ChnaChunk struct {
	AudioIDs []AudioID
}

func (c *ChnaChunk) ID() FourCC { return idChna }

func (c *ChnaChunk) Size() uint64 {
	return uint64(4 + len(c.AudioIDs)*audioIDWireSize)
}

// NumUIDs is the record count.
func (c *ChnaChunk) NumUIDs() int { return len(c.AudioIDs) }

// NumTracks is the count of distinct TrackIndex values among the records.
func (c *ChnaChunk) NumTracks() int {
	seen := make(map[uint16]struct{}, len(c.AudioIDs))
	for _, a := range c.AudioIDs {
		seen[a.TrackIndex] = struct{}{}
	}

	return len(seen)
}

func (c *ChnaChunk) Write(w io.Writer) error {
	const op = "ChnaChunk.Write"

	if len(c.AudioIDs) > maxNumberOfUIDs {
		return newCapacityError(op, errChnaTooManyUids)
	}

	buf := new(bytes.Buffer)
	buf.Grow(int(c.Size()))

	if err := writeLE(buf, op, uint16(c.NumTracks())); err != nil {
		return err
	}
	if err := writeLE(buf, op, uint16(c.NumUIDs())); err != nil {
		return err
	}

	for _, a := range c.AudioIDs {
		if a.TrackIndex == 0 {
			return newStateError(op, errZeroTrackIndex)
		}

		if err := writeLE(buf, op, a.TrackIndex); err != nil {
			return err
		}
		if err := writeFixedASCII(buf, op, a.UID, audioIDUIDLength); err != nil {
			return err
		}
		if err := writeFixedASCII(buf, op, a.TrackRef, audioIDTrackRefLength); err != nil {
			return err
		}
		if err := writeFixedASCII(buf, op, a.PackRef, audioIDPackRefLength); err != nil {
			return err
		}
		if err := writeLE(buf, op, byte(0)); err != nil {
			return err
		}
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return newIOError(op, err)
	}

	return nil
}

// writeFixedASCII writes s into a fixed-width field, NUL-padding or
// truncating to fit exactly width bytes.
func writeFixedASCII(w io.Writer, op string, s string, width int) error {
	field := make([]byte, width)
	copy(field, s)

	if _, err := w.Write(field); err != nil {
		return newIOError(op, fmt.Errorf("write fixed ascii field: %w", err))
	}

	return nil
}

func readFixedASCII(r io.Reader, op string, width int) (string, error) {
	field := make([]byte, width)
	if err := readExact(r, op, field); err != nil {
		return "", err
	}

	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}

	return string(field), nil
}

// parseChnaChunk follows the wire order numTracks, numUids, then numUids
// AudioID records — numTracks precedes numUids on the wire even though
// both are derived quantities.
func parseChnaChunk(r io.Reader, size uint64) (*ChnaChunk, error) {
	const op = "parseChnaChunk"

	if size < 4 {
		return nil, newFormatError(op, fmt.Errorf("chna chunk size %d below minimum 4", size))
	}

	var numTracks, numUIDs uint16
	if err := readLE(r, op, &numTracks); err != nil {
		return nil, err
	}
	if err := readLE(r, op, &numUIDs); err != nil {
		return nil, err
	}

	want := uint64(4 + int(numUIDs)*audioIDWireSize)
	if want > size {
		return nil, newFormatError(op, fmt.Errorf("chna chunk size %d too small for numUids %d", size, numUIDs))
	}

	c := &ChnaChunk{AudioIDs: make([]AudioID, 0, numUIDs)}

	for i := uint16(0); i < numUIDs; i++ {
		var a AudioID

		if err := readLE(r, op, &a.TrackIndex); err != nil {
			return nil, err
		}

		uid, err := readFixedASCII(r, op, audioIDUIDLength)
		if err != nil {
			return nil, err
		}
		a.UID = uid

		trackRef, err := readFixedASCII(r, op, audioIDTrackRefLength)
		if err != nil {
			return nil, err
		}
		a.TrackRef = trackRef

		packRef, err := readFixedASCII(r, op, audioIDPackRefLength)
		if err != nil {
			return nil, err
		}
		a.PackRef = packRef

		var pad byte
		if err := readLE(r, op, &pad); err != nil {
			return nil, err
		}

		c.AudioIDs = append(c.AudioIDs, a)
	}

	if c.NumTracks() != int(numTracks) {
		return nil, newFormatError(op, fmt.Errorf("chna numTracks mismatch: stream has %d, derived %d", numTracks, c.NumTracks()))
	}

	if remaining := size - want; remaining > 0 {
		if _, err := io.CopyN(io.Discard, r, int64(remaining)); err != nil {
			return nil, newIOError(op, fmt.Errorf("skip trailing chna bytes: %w", err))
		}
	}

	return c, nil
}
