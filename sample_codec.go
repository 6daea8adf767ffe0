package bw64

import (
	"encoding/binary"
	"math"

	"github.com/go-audio/audio"
)

// Scale factors matching the maximum magnitude representable at each PCM
// width; encode multiplies by these, decode divides by them.
const (
	scalePCM16 = 32767.0
	scalePCM24 = 8388607.0
	scalePCM32 = 2147483647.0
)

// clipFloat clamps x to [-1, 1], the range required before any PCM
// scaling.
func clipFloat(x float32) float32 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}

// encodeSample converts one clipped float sample into its on-disk byte
// representation for the given bitsPerSample, rounding half away from
// zero for PCM widths and passing binary32 through bit-exact for 32-bit
// float.
func encodeSample(x float32, bitsPerSample uint16, isFloat bool) []byte {
	if isFloat {
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, math.Float32bits(x))
		return buf
	}

	clipped := clipFloat(x)

	switch bitsPerSample {
	case 16:
		v := int16(roundHalfAwayFromZero(float64(clipped) * scalePCM16))
		buf := make([]byte, 2)
		binary.LittleEndian.PutUint16(buf, uint16(v))
		return buf
	case 24:
		v := int32(roundHalfAwayFromZero(float64(clipped) * scalePCM24))
		return audio.Int32toInt24LEBytes(v)
	case 32:
		v := int32(roundHalfAwayFromZero(float64(clipped) * scalePCM32))
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(v))
		return buf
	default:
		return nil
	}
}

// decodeSample inverts encodeSample.
func decodeSample(buf []byte, bitsPerSample uint16, isFloat bool) float32 {
	if isFloat {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf))
	}

	switch bitsPerSample {
	case 16:
		v := int16(binary.LittleEndian.Uint16(buf))
		return float32(float64(v) / scalePCM16)
	case 24:
		v := audio.Int24LETo32(buf)
		return float32(float64(v) / scalePCM24)
	case 32:
		v := int32(binary.LittleEndian.Uint32(buf))
		return float32(float64(v) / scalePCM32)
	default:
		return 0
	}
}

func roundHalfAwayFromZero(v float64) float64 {
	if v >= 0 {
		return math.Floor(v + 0.5)
	}
	return math.Ceil(v - 0.5)
}

// encodeSamples encodes each value of samples and returns them packed in a
// new slice of exactly len(samples)*bytesPerSample bytes.
func encodeSamples(samples []float32, bitsPerSample uint16, isFloat bool) []byte {
	bytesPerSample := int(bitsPerSample) / 8
	dst := make([]byte, len(samples)*bytesPerSample)

	for i, s := range samples {
		copy(dst[i*bytesPerSample:], encodeSample(s, bitsPerSample, isFloat))
	}

	return dst
}

// decodeSamples inverts encodeSamples.
func decodeSamples(src []byte, bitsPerSample uint16, isFloat bool) []float32 {
	bytesPerSample := int(bitsPerSample) / 8
	count := len(src) / bytesPerSample
	samples := make([]float32, count)

	for i := 0; i < count; i++ {
		samples[i] = decodeSample(src[i*bytesPerSample:(i+1)*bytesPerSample], bitsPerSample, isFloat)
	}

	return samples
}
