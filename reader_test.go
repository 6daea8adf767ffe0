package bw64

import (
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
)

func TestReaderSeekClampsToFrameRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seek.wav")

	w, err := WriteFile(path, 1, 44100, 16)
	if err != nil {
		t.Fatal(err)
	}
	samples := make([]float32, 100)
	buf := &audio.Float32Buffer{Data: samples, Format: &audio.Format{NumChannels: 1, SampleRate: 44100}}
	if err := w.Write(buf, 100); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if got, err := r.Seek(1000, 0); err != nil || got != 100 {
		t.Errorf("Seek(1000, SeekStart) = %d, %v, want 100 (clamped to NumberOfFrames)", got, err)
	}
	if !r.EOF() {
		t.Error("expected EOF after seeking to the end of the data")
	}

	if got, err := r.Seek(-1000, 0); err != nil || got != 0 {
		t.Errorf("Seek(-1000, SeekStart) = %d, %v, want 0 (clamped to zero)", got, err)
	}
	if r.EOF() {
		t.Error("did not expect EOF after seeking back to frame 0")
	}
}

func TestReaderHasChunkAndChunksOnPlainRiffFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.wav")

	w, err := WriteFile(path, 1, 44100, 16)
	if err != nil {
		t.Fatal(err)
	}
	buf := &audio.Float32Buffer{Data: make([]float32, 10), Format: &audio.Format{NumChannels: 1, SampleRate: 44100}}
	if err := w.Write(buf, 10); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if !r.HasChunk(idFmt) || !r.HasChunk(idData) {
		t.Error("expected fmt and data chunks to be present")
	}
	if r.HasChunk(idDs64) {
		t.Error("a small file should not be promoted to BW64 with a ds64 chunk")
	}
	if r.Ds64Chunk() != nil {
		t.Error("Ds64Chunk() should be nil for a plain RIFF file")
	}
	if len(r.Chunks()) == 0 {
		t.Error("Chunks() should report at least fmt and data")
	}
}

func TestResolveSizeOverlaysDs64OntoDataAndTableEntries(t *testing.T) {
	r := &Reader{ds64: newDataSize64()}
	r.ds64.DataSize = 1 << 33
	r.ds64.Table[idChna] = 1 << 34

	if got := r.resolveSize(idData, 0xFFFFFFFF); got != 1<<33 {
		t.Errorf("resolveSize(data) = %d, want %d", got, uint64(1)<<33)
	}
	if got := r.resolveSize(idChna, 0xFFFFFFFF); got != 1<<34 {
		t.Errorf("resolveSize(chna) = %d, want %d", got, uint64(1)<<34)
	}
	if got := r.resolveSize(idAxml, 42); got != 42 {
		t.Errorf("resolveSize(axml) with no table entry = %d, want passthrough 42", got)
	}
}
