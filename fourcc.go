package bw64

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-audio/riff"
)

// FourCC is a 4-byte ASCII chunk identifier, serialized little-endian as a
// 32-bit word on the wire.
type FourCC [4]byte

func (id FourCC) String() string {
	return string(id[:])
}

var (
	// idRIFF, idBW64, idRF64 are the three permitted outer container ids.
	idRIFF = FourCC(riff.RiffID)
	idBW64 = FourCC{'B', 'W', '6', '4'}
	idRF64 = FourCC{'R', 'F', '6', '4'}
	idWAVE = FourCC(riff.WavFormatID)

	idFmt  = FourCC(riff.FmtID)
	idData = FourCC(riff.DataFormatID)
	idDs64 = FourCC{'d', 's', '6', '4'}
	idJunk = FourCC{'J', 'U', 'N', 'K'}
	idChna = FourCC{'c', 'h', 'n', 'a'}
	idAxml = FourCC{'a', 'x', 'm', 'l'}
	idCue  = FourCC{'c', 'u', 'e', ' '}
	idList = FourCC{'L', 'I', 'S', 'T'}
	idLabl = FourCC{'l', 'a', 'b', 'l'}
	idAdtl = FourCC{'a', 'd', 't', 'l'}
)

// readLE reads a little-endian fixed-width value, failing with IOError on
// short reads.
func readLE(r io.Reader, op string, v any) error {
	if err := binary.Read(r, binary.LittleEndian, v); err != nil {
		return newIOError(op, fmt.Errorf("read: %w", err))
	}

	return nil
}

// writeLE writes a little-endian fixed-width value, failing with IOError.
func writeLE(w io.Writer, op string, v any) error {
	if err := binary.Write(w, binary.LittleEndian, v); err != nil {
		return newIOError(op, fmt.Errorf("write: %w", err))
	}

	return nil
}

// readExact reads exactly len(dest) bytes or fails with IOError.
func readExact(r io.Reader, op string, dest []byte) error {
	if _, err := io.ReadFull(r, dest); err != nil {
		return newIOError(op, fmt.Errorf("short read: %w", err))
	}

	return nil
}

// readFourCC reads a 4-byte chunk id.
func readFourCC(r io.Reader, op string) (FourCC, error) {
	var id FourCC
	if err := readExact(r, op, id[:]); err != nil {
		return id, err
	}

	return id, nil
}

// writeFourCC writes a 4-byte chunk id.
func writeFourCC(w io.Writer, op string, id FourCC) error {
	if _, err := w.Write(id[:]); err != nil {
		return newIOError(op, fmt.Errorf("write fourCC %q: %w", id, err))
	}

	return nil
}

// writeChunkPlaceholder writes an 8-byte header (id, size) followed by size
// zero bytes, reserving a fixed region to be overwritten later.
func writeChunkPlaceholder(w io.Writer, op string, id FourCC, size uint32) error {
	if err := writeFourCC(w, op, id); err != nil {
		return err
	}

	if err := writeLE(w, op, size); err != nil {
		return err
	}

	zeros := make([]byte, size)
	if _, err := w.Write(zeros); err != nil {
		return newIOError(op, fmt.Errorf("write placeholder body: %w", err))
	}

	return nil
}

// padSize returns 1 if size is odd (a pad byte follows the chunk body on
// the wire), 0 otherwise.
func padSize(size uint64) int64 {
	if size%2 == 1 {
		return 1
	}

	return 0
}
