package bw64

import (
	"bytes"
	"fmt"
	"io"
)

// WAVE formatTag values recognized by this package. Anything else is a
// FormatError at parse time.
const (
	wavFormatPCM        uint16 = 0x0001
	wavFormatIEEEFloat  uint16 = 0x0003
	wavFormatExtensible uint16 = 0xFFFE
)

// FmtExtra carries the fields present only when formatTag is
// WAVE_FORMAT_EXTENSIBLE.
type FmtExtra struct {
	ValidBitsPerSample uint16
	ChannelMask        uint32
	SubFormat          GUID
}

// FormatInfo is the fmt chunk: PCM, IEEE_FLOAT, or EXTENSIBLE layout
// description for the samples in the data chunk.
type FormatInfo struct {
	FormatTag      uint16
	NumChannels    uint16
	SampleRate     uint32
	AvgBytesPerSec uint32
	BlockAlign     uint16
	BitsPerSample  uint16
	Extra          *FmtExtra
}

// NewFormatInfo builds a plain PCM or IEEE_FLOAT fmt chunk, deriving
// blockAlign and avgBytesPerSec and failing with CapacityError if either
// overflows its wire width.
func NewFormatInfo(channels uint16, sampleRate uint32, bitsPerSample uint16, useFloat bool) (*FormatInfo, error) {
	tag := wavFormatPCM
	if useFloat {
		tag = wavFormatIEEEFloat
	}

	return newFormatInfo(channels, sampleRate, bitsPerSample, tag, nil)
}

// NewFormatInfoExtensible builds an EXTENSIBLE fmt chunk. channelMask is
// used as-is; if its popcount is less than channels the caller's mask is
// kept (callers wanting auto-fill should pass 0 and let the mask read as
// unspecified — spec leaves the exact fill policy to the caller, this
// package does not silently rewrite a caller-supplied mask).
func NewFormatInfoExtensible(channels uint16, sampleRate uint32, bitsPerSample uint16, useFloat bool, channelMask uint32) (*FormatInfo, error) {
	sub := subFormatGUID(useFloat)

	extra := &FmtExtra{
		ValidBitsPerSample: bitsPerSample,
		ChannelMask:        channelMask,
		SubFormat:          sub,
	}

	return newFormatInfo(channels, sampleRate, bitsPerSample, wavFormatExtensible, extra)
}

func newFormatInfo(channels uint16, sampleRate uint32, bitsPerSample uint16, tag uint16, extra *FmtExtra) (*FormatInfo, error) {
	const op = "NewFormatInfo"

	if err := validateBitsPerSample(bitsPerSample); err != nil {
		return nil, newFormatError(op, err)
	}

	blockAlign, err := computeBlockAlign(channels, bitsPerSample)
	if err != nil {
		return nil, newCapacityError(op, err)
	}

	avgBytesPerSec, err := computeAvgBytesPerSec(sampleRate, blockAlign)
	if err != nil {
		return nil, newCapacityError(op, err)
	}

	return &FormatInfo{
		FormatTag:      tag,
		NumChannels:    channels,
		SampleRate:     sampleRate,
		AvgBytesPerSec: avgBytesPerSec,
		BlockAlign:     blockAlign,
		BitsPerSample:  bitsPerSample,
		Extra:          extra,
	}, nil
}

// validateBitsPerSample rejects any depth the PCM/float sample codec does
// not implement, so a fmt chunk can never describe a bit depth that
// encodeSample/decodeSample would silently no-op on.
func validateBitsPerSample(bitsPerSample uint16) error {
	switch bitsPerSample {
	case 16, 24, 32:
		return nil
	default:
		return fmt.Errorf("unsupported bitsPerSample %d, want 16, 24, or 32", bitsPerSample)
	}
}

func computeBlockAlign(channels uint16, bitsPerSample uint16) (uint16, error) {
	v := uint32(channels) * uint32(bitsPerSample) / 8
	if v > 0xFFFF {
		return 0, fmt.Errorf("blockAlignment %d overflows u16", v)
	}

	return uint16(v), nil
}

func computeAvgBytesPerSec(sampleRate uint32, blockAlign uint16) (uint32, error) {
	v := uint64(sampleRate) * uint64(blockAlign)
	if v > 0xFFFFFFFF {
		return 0, fmt.Errorf("bytesPerSecond %d overflows u32", v)
	}

	return uint32(v), nil
}

func (f *FormatInfo) ID() FourCC { return idFmt }

func (f *FormatInfo) Size() uint64 {
	if f.FormatTag == wavFormatExtensible {
		return 16 + 2 + 22
	}

	return 16
}

// IsFloat reports whether samples are IEEE 754 binary32, whether declared
// directly or via an EXTENSIBLE subFormat.
func (f *FormatInfo) IsFloat() bool {
	if f.FormatTag == wavFormatIEEEFloat {
		return true
	}

	return f.FormatTag == wavFormatExtensible && f.Extra != nil && f.Extra.SubFormat.Data1 == uint32(wavFormatIEEEFloat)
}

// IsExtensible reports whether formatTag is WAVE_FORMAT_EXTENSIBLE.
func (f *FormatInfo) IsExtensible() bool {
	return f.FormatTag == wavFormatExtensible
}

func (f *FormatInfo) Write(w io.Writer) error {
	const op = "FormatInfo.Write"

	buf := new(bytes.Buffer)
	buf.Grow(int(f.Size()))

	for _, v := range []any{f.FormatTag, f.NumChannels, f.SampleRate, f.AvgBytesPerSec, f.BlockAlign, f.BitsPerSample} {
		if err := writeLE(buf, op, v); err != nil {
			return err
		}
	}

	if f.FormatTag == wavFormatExtensible {
		if err := writeLE(buf, op, uint16(22)); err != nil {
			return err
		}
		if err := writeLE(buf, op, f.Extra.ValidBitsPerSample); err != nil {
			return err
		}
		if err := writeLE(buf, op, f.Extra.ChannelMask); err != nil {
			return err
		}
		if err := writeGUID(buf, op, f.Extra.SubFormat); err != nil {
			return err
		}
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return newIOError(op, err)
	}

	return nil
}

// parseFormatInfo reads the 16 mandatory bytes, resolves cbSize against
// the declared size, enforces the per-formatTag extraData rules, then
// recomputes blockAlign/bytesPerSecond and compares against the wire
// values.
func parseFormatInfo(r io.Reader, size uint64) (*FormatInfo, error) {
	const op = "parseFormatInfo"

	if size < 16 {
		return nil, newFormatError(op, fmt.Errorf("fmt chunk size %d below minimum 16", size))
	}

	f := &FormatInfo{}

	if err := readLE(r, op, &f.FormatTag); err != nil {
		return nil, err
	}
	if err := readLE(r, op, &f.NumChannels); err != nil {
		return nil, err
	}
	if err := readLE(r, op, &f.SampleRate); err != nil {
		return nil, err
	}
	if err := readLE(r, op, &f.AvgBytesPerSec); err != nil {
		return nil, err
	}
	if err := readLE(r, op, &f.BlockAlign); err != nil {
		return nil, err
	}
	if err := readLE(r, op, &f.BitsPerSample); err != nil {
		return nil, err
	}
	if err := validateBitsPerSample(f.BitsPerSample); err != nil {
		return nil, newFormatError(op, err)
	}

	var cbSize uint16
	if size >= 18 {
		if err := readLE(r, op, &cbSize); err != nil {
			return nil, err
		}
		if size != 18+uint64(cbSize) {
			return nil, newFormatError(op, fmt.Errorf("declared size %d does not match 18+cbSize(%d)", size, cbSize))
		}
	} else if size != 16 {
		return nil, newFormatError(op, fmt.Errorf("fmt chunk size %d must be exactly 16 without cbSize", size))
	}

	switch f.FormatTag {
	case wavFormatPCM, wavFormatIEEEFloat:
		if cbSize != 0 {
			return nil, newFormatError(op, fmt.Errorf("formatTag %#x forbids extraData, got cbSize=%d", f.FormatTag, cbSize))
		}
	case wavFormatExtensible:
		if cbSize != 22 {
			return nil, newFormatError(op, fmt.Errorf("EXTENSIBLE requires cbSize=22, got %d", cbSize))
		}

		extra := &FmtExtra{}
		if err := readLE(r, op, &extra.ValidBitsPerSample); err != nil {
			return nil, err
		}
		if err := readLE(r, op, &extra.ChannelMask); err != nil {
			return nil, err
		}

		sub, err := readGUID(r, op)
		if err != nil {
			return nil, err
		}
		extra.SubFormat = sub

		if sub.Data1 != uint32(wavFormatPCM) && sub.Data1 != uint32(wavFormatIEEEFloat) {
			return nil, newFormatError(op, fmt.Errorf("unsupported subFormat Data1=%d", sub.Data1))
		}

		f.Extra = extra
	default:
		return nil, newFormatError(op, fmt.Errorf("unsupported formatTag %#x", f.FormatTag))
	}

	wantBlockAlign, err := computeBlockAlign(f.NumChannels, f.BitsPerSample)
	if err != nil {
		return nil, newFormatError(op, err)
	}
	if wantBlockAlign != f.BlockAlign {
		return nil, newFormatError(op, fmt.Errorf("blockAlign mismatch: stream has %d, derived %d", f.BlockAlign, wantBlockAlign))
	}

	wantAvgBytesPerSec, err := computeAvgBytesPerSec(f.SampleRate, f.BlockAlign)
	if err != nil {
		return nil, newFormatError(op, err)
	}
	if wantAvgBytesPerSec != f.AvgBytesPerSec {
		return nil, newFormatError(op, fmt.Errorf("bytesPerSecond mismatch: stream has %d, derived %d", f.AvgBytesPerSec, wantAvgBytesPerSec))
	}

	return f, nil
}
