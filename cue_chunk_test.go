package bw64

import (
	"bytes"
	"testing"
)

func TestCueChunkAddKeepsPositionSortedAndRejectsDuplicates(t *testing.T) {
	c := &CueChunk{}

	for _, p := range []CuePoint{
		{ID: 3, Position: 300},
		{ID: 1, Position: 100},
		{ID: 2, Position: 200},
	} {
		if err := c.AddCuePoint(p); err != nil {
			t.Fatalf("AddCuePoint(%+v): %v", p, err)
		}
	}

	if err := c.AddCuePoint(CuePoint{ID: 2, Position: 999}); err == nil {
		t.Fatal("expected duplicate-id rejection")
	} else if !IsKind(err, KindState) {
		t.Errorf("expected StateError, got %v", err)
	}

	points := c.Points()
	wantIDs := []uint32{1, 2, 3}
	for i, p := range points {
		if p.ID != wantIDs[i] {
			t.Errorf("points[%d].ID = %d, want %d", i, p.ID, wantIDs[i])
		}
	}
}

func TestCueChunkFindByID(t *testing.T) {
	c := &CueChunk{}
	_ = c.AddCuePoint(CuePoint{ID: 5, Position: 10})

	if p, ok := c.FindByID(5); !ok || p.Position != 10 {
		t.Errorf("FindByID(5) = %+v, %v", p, ok)
	}
	if _, ok := c.FindByID(6); ok {
		t.Error("FindByID(6) found a point that doesn't exist")
	}
}

func TestCueChunkRoundTrip(t *testing.T) {
	c := &CueChunk{}
	_ = c.AddCuePoint(CuePoint{ID: 1, Position: 1000, DataChunkID: idData, ChunkStart: 1, BlockStart: 2, SampleOffset: 3})
	_ = c.AddCuePoint(CuePoint{ID: 2, Position: 2000, DataChunkID: idData})

	buf := new(bytes.Buffer)
	if err := c.Write(buf); err != nil {
		t.Fatal(err)
	}

	got, err := parseCueChunk(bytes.NewReader(buf.Bytes()), c.Size())
	if err != nil {
		t.Fatal(err)
	}

	if len(got.Points()) != 2 {
		t.Fatalf("got %d points, want 2", len(got.Points()))
	}
	p := got.Points()[0]
	if p.ID != 1 || p.Position != 1000 || p.ChunkStart != 1 || p.BlockStart != 2 || p.SampleOffset != 3 {
		t.Errorf("round-trip mismatch: %+v", p)
	}
	if p.DataChunkID != idData {
		t.Errorf("DataChunkID = %q, want %q", p.DataChunkID, idData)
	}
}

func TestCueChunkLabelsOnlyIncludesNonEmpty(t *testing.T) {
	c := &CueChunk{}
	_ = c.AddCuePoint(CuePoint{ID: 1, Position: 0, Label: "verse"})
	_ = c.AddCuePoint(CuePoint{ID: 2, Position: 1})

	labels := c.Labels()
	if len(labels) != 1 || labels[1] != "verse" {
		t.Errorf("Labels() = %+v, want only {1: \"verse\"}", labels)
	}
}

func TestParseCueChunkToleratesTrailingBytes(t *testing.T) {
	c := &CueChunk{}
	_ = c.AddCuePoint(CuePoint{ID: 1, Position: 0})

	buf := new(bytes.Buffer)
	if err := c.Write(buf); err != nil {
		t.Fatal(err)
	}
	buf.Write(make([]byte, 48))

	got, err := parseCueChunk(bytes.NewReader(buf.Bytes()), uint64(buf.Len()))
	if err != nil {
		t.Fatalf("expected trailing reserved bytes to be tolerated: %v", err)
	}
	if len(got.Points()) != 1 {
		t.Errorf("got %d points, want 1", len(got.Points()))
	}
}
