package bw64

import (
	"bytes"
	"fmt"
	"io"
)

const cuePointWireSize = 24

// CuePoint is one named sample position. Label is carried out-of-band: it
// never appears in the cue chunk's own wire form, only in a labl
// sub-chunk joined at read/write time — see markers.go.
type CuePoint struct {
	ID           uint32
	Position     uint32
	DataChunkID  FourCC
	ChunkStart   uint32
	BlockStart   uint32
	SampleOffset uint32
	Label        string
}

// CueChunk is the `cue ` chunk: a vector of CuePoint kept sorted by
// Position and unique by ID after every mutation.
type CueChunk struct {
	points []CuePoint
}

func (c *CueChunk) ID() FourCC { return idCue }

func (c *CueChunk) Size() uint64 {
	return uint64(4 + len(c.points)*cuePointWireSize)
}

// Points returns the current cue points in stored (position-ascending)
// order. The returned slice must not be mutated by the caller.
func (c *CueChunk) Points() []CuePoint {
	return c.points
}

// AddCuePoint inserts p, rejecting a duplicate ID, and re-sorts by
// Position.
func (c *CueChunk) AddCuePoint(p CuePoint) error {
	const op = "CueChunk.AddCuePoint"

	for _, existing := range c.points {
		if existing.ID == p.ID {
			return newStateError(op, errDuplicateCueID)
		}
	}

	c.points = append(c.points, p)
	c.sortByPosition()

	return nil
}

func (c *CueChunk) sortByPosition() {
	for i := 1; i < len(c.points); i++ {
		for j := i; j > 0 && c.points[j-1].Position > c.points[j].Position; j-- {
			c.points[j-1], c.points[j] = c.points[j], c.points[j-1]
		}
	}
}

// FindByID returns the cue point with the given ID, if any.
func (c *CueChunk) FindByID(id uint32) (CuePoint, bool) {
	for _, p := range c.points {
		if p.ID == id {
			return p, true
		}
	}

	return CuePoint{}, false
}

// Labels returns the non-empty Label text for each point, keyed by ID —
// this is what gets projected into LIST(adtl)/labl sub-chunks on write.
func (c *CueChunk) Labels() map[uint32]string {
	labels := make(map[uint32]string)

	for _, p := range c.points {
		if p.Label != "" {
			labels[p.ID] = p.Label
		}
	}

	return labels
}

// setLabel attaches text to the cue point with the given ID, used when
// joining labl sub-chunks back onto cue points on read.
func (c *CueChunk) setLabel(id uint32, label string) {
	for i := range c.points {
		if c.points[i].ID == id {
			c.points[i].Label = label
			return
		}
	}
}

func (c *CueChunk) Write(w io.Writer) error {
	const op = "CueChunk.Write"

	buf := new(bytes.Buffer)
	buf.Grow(int(c.Size()))

	if err := writeLE(buf, op, uint32(len(c.points))); err != nil {
		return err
	}

	for _, p := range c.points {
		if err := writeLE(buf, op, p.ID); err != nil {
			return err
		}
		if err := writeLE(buf, op, p.Position); err != nil {
			return err
		}
		if err := writeFourCC(buf, op, p.DataChunkID); err != nil {
			return err
		}
		if err := writeLE(buf, op, p.ChunkStart); err != nil {
			return err
		}
		if err := writeLE(buf, op, p.BlockStart); err != nil {
			return err
		}
		if err := writeLE(buf, op, p.SampleOffset); err != nil {
			return err
		}
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return newIOError(op, err)
	}

	return nil
}

func parseCueChunk(r io.Reader, size uint64) (*CueChunk, error) {
	const op = "parseCueChunk"

	if size < 4 {
		return nil, newFormatError(op, fmt.Errorf("cue chunk size %d below minimum 4", size))
	}

	var count uint32
	if err := readLE(r, op, &count); err != nil {
		return nil, err
	}

	want := uint64(4 + int(count)*cuePointWireSize)
	if want > size {
		return nil, newFormatError(op, fmt.Errorf("cue chunk size %d too small for count %d", size, count))
	}

	c := &CueChunk{points: make([]CuePoint, 0, count)}

	for i := uint32(0); i < count; i++ {
		var p CuePoint

		if err := readLE(r, op, &p.ID); err != nil {
			return nil, err
		}
		if err := readLE(r, op, &p.Position); err != nil {
			return nil, err
		}

		id, err := readFourCC(r, op)
		if err != nil {
			return nil, err
		}
		p.DataChunkID = id

		if err := readLE(r, op, &p.ChunkStart); err != nil {
			return nil, err
		}
		if err := readLE(r, op, &p.BlockStart); err != nil {
			return nil, err
		}
		if err := readLE(r, op, &p.SampleOffset); err != nil {
			return nil, err
		}

		c.points = append(c.points, p)
	}

	if remaining := size - want; remaining > 0 {
		if _, err := io.CopyN(io.Discard, r, int64(remaining)); err != nil {
			return nil, newIOError(op, fmt.Errorf("skip trailing cue bytes: %w", err))
		}
	}

	return c, nil
}
