package bw64

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// GUID is a Microsoft KSDATAFORMAT identifier: Data1/Data2/Data3 are
// little-endian, Data4 is written raw (mixed-endian layout).
type GUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

var (
	// guidSubtypePCM and guidSubtypeIEEEFloat are the two subFormat GUIDs
	// EXTENSIBLE fmt chunks are allowed to carry; both share the KSDATAFORMAT
	// tail and differ only in Data1.
	guidSubtypePCM       = GUID{Data1: uint32(wavFormatPCM), Data2: 0x0000, Data3: 0x0010, Data4: ksDataFormatTail}
	guidSubtypeIEEEFloat = GUID{Data1: uint32(wavFormatIEEEFloat), Data2: 0x0000, Data3: 0x0010, Data4: ksDataFormatTail}

	ksDataFormatTail = [8]byte{0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71}
)

func (g GUID) Equal(other GUID) bool {
	return g.Data1 == other.Data1 && g.Data2 == other.Data2 && g.Data3 == other.Data3 && g.Data4 == other.Data4
}

func readGUID(r io.Reader, op string) (GUID, error) {
	var g GUID

	if err := readLE(r, op, &g.Data1); err != nil {
		return g, err
	}
	if err := readLE(r, op, &g.Data2); err != nil {
		return g, err
	}
	if err := readLE(r, op, &g.Data3); err != nil {
		return g, err
	}
	if err := readExact(r, op, g.Data4[:]); err != nil {
		return g, err
	}

	return g, nil
}

func writeGUID(w io.Writer, op string, g GUID) error {
	buf := new(bytes.Buffer)
	buf.Grow(16)

	_ = binary.Write(buf, binary.LittleEndian, g.Data1)
	_ = binary.Write(buf, binary.LittleEndian, g.Data2)
	_ = binary.Write(buf, binary.LittleEndian, g.Data3)
	buf.Write(g.Data4[:])

	if _, err := w.Write(buf.Bytes()); err != nil {
		return newIOError(op, fmt.Errorf("write GUID: %w", err))
	}

	return nil
}

// subFormatGUID returns the GUID used for an EXTENSIBLE fmt chunk's
// subFormat field given whether samples are float.
func subFormatGUID(useFloat bool) GUID {
	if useFloat {
		return guidSubtypeIEEEFloat
	}

	return guidSubtypePCM
}
