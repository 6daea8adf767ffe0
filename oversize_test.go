package bw64

import (
	"fmt"
	"io"
	"testing"

	"github.com/go-audio/audio"
)

// sparseSeeker is an io.ReadWriteSeeker that only materializes a small
// real prefix of its content; positions beyond that prefix are pure
// bookkeeping. It lets a test push a data region past the ds64 4 GiB
// threshold without allocating a multi-gigabyte buffer.
type sparseSeeker struct {
	buf []byte
	pos int64
	end int64
}

const sparseCap = 1 << 16

func (s *sparseSeeker) Write(p []byte) (int, error) {
	n := int64(len(p))
	if s.pos < sparseCap {
		grow := s.pos + n
		if grow > sparseCap {
			grow = sparseCap
		}
		if grow > int64(len(s.buf)) {
			s.buf = append(s.buf, make([]byte, grow-int64(len(s.buf)))...)
		}
		copy(s.buf[s.pos:grow], p[:grow-s.pos])
	}
	s.pos += n
	if s.pos > s.end {
		s.end = s.pos
	}
	return len(p), nil
}

func (s *sparseSeeker) Read(p []byte) (int, error) {
	if s.pos >= s.end {
		return 0, io.EOF
	}
	avail := s.end - s.pos
	n := int64(len(p))
	if n > avail {
		n = avail
	}
	if s.pos < int64(len(s.buf)) {
		m := int64(len(s.buf)) - s.pos
		if m > n {
			m = n
		}
		copy(p[:m], s.buf[s.pos:s.pos+m])
		for i := m; i < n; i++ {
			p[i] = 0
		}
	} else {
		for i := int64(0); i < n; i++ {
			p[i] = 0
		}
	}
	s.pos += n
	return int(n), nil
}

func (s *sparseSeeker) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = s.pos + offset
	case io.SeekEnd:
		target = s.end + offset
	default:
		return 0, fmt.Errorf("sparseSeeker: invalid whence %d", whence)
	}
	if target < 0 {
		return 0, fmt.Errorf("sparseSeeker: negative seek target %d", target)
	}
	s.pos = target
	if target > s.end {
		s.end = target
	}
	return target, nil
}

// TestWriterPromotesToDs64OnOversizeData forces the data region past the
// ds64 threshold by rewriting Writer's unexported dataSize/cursor fields
// directly, rather than actually streaming gigabytes of samples, then
// checks that Close promotes the outer container and that a Reader
// resolves DataSize/NumberOfFrames through the ds64 chunk.
func TestWriterPromotesToDs64OnOversizeData(t *testing.T) {
	stream := &sparseSeeker{}

	w, err := NewWriter(stream, 2, 48000, 16)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	buf := &audio.Float32Buffer{Data: make([]float32, 8), Format: &audio.Format{NumChannels: 2, SampleRate: 48000}}
	if err := w.Write(buf, 4); err != nil {
		t.Fatalf("Write: %v", err)
	}

	const hugeDataSize = uint64(0xFFFFFFFF) + 1<<20 + 1
	w.dataSize = hugeDataSize
	w.cursor = w.dataStart + hugeDataSize

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := stream.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("rewind stream: %v", err)
	}

	r, err := NewReader(stream)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}

	if r.outerID != idBW64 {
		t.Errorf("outerID = %q, want BW64", r.outerID)
	}
	if r.Ds64Chunk() == nil {
		t.Fatal("expected a ds64 chunk on the promoted file")
	}
	if got := r.DataChunk().Size(); got != hugeDataSize {
		t.Errorf("DataChunk().Size() = %d, want %d", got, hugeDataSize)
	}

	wantFrames := hugeDataSize / uint64(r.BlockAlignment())
	if got := r.NumberOfFrames(); got != wantFrames {
		t.Errorf("NumberOfFrames() = %d, want %d", got, wantFrames)
	}
}

// TestWriterPromotesToRF64WithRF64Id repeats the oversize promotion with
// WithRF64Id and checks the outer id becomes RF64 instead of BW64.
func TestWriterPromotesToRF64WithRF64Id(t *testing.T) {
	stream := &sparseSeeker{}

	w, err := NewWriter(stream, 1, 44100, 24, WithRF64Id())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	buf := &audio.Float32Buffer{Data: make([]float32, 2), Format: &audio.Format{NumChannels: 1, SampleRate: 44100}}
	if err := w.Write(buf, 2); err != nil {
		t.Fatalf("Write: %v", err)
	}

	const hugeDataSize = uint64(0xFFFFFFFF) + 3
	w.dataSize = hugeDataSize
	w.cursor = w.dataStart + hugeDataSize

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := stream.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("rewind stream: %v", err)
	}

	r, err := NewReader(stream)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}

	if r.outerID != idRF64 {
		t.Errorf("outerID = %q, want RF64", r.outerID)
	}
	if r.Ds64Chunk() == nil {
		t.Fatal("expected a ds64 chunk on the promoted file")
	}
	if got := r.DataChunk().Size(); got != hugeDataSize {
		t.Errorf("DataChunk().Size() = %d, want %d", got, hugeDataSize)
	}
}
