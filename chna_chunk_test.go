package bw64

import (
	"bytes"
	"testing"
)

func TestChnaChunkRoundTrip(t *testing.T) {
	c := &ChnaChunk{AudioIDs: []AudioID{
		{TrackIndex: 1, UID: "ATU_00000001", TrackRef: "ATU_0000000100", PackRef: "AP_00010001"},
		{TrackIndex: 2, UID: "ATU_00000002", TrackRef: "ATU_0000000200", PackRef: "AP_00010001"},
		{TrackIndex: 1, UID: "ATU_00000003", TrackRef: "ATU_0000000300", PackRef: "AP_00010002"},
	}}

	buf := new(bytes.Buffer)
	if err := c.Write(buf); err != nil {
		t.Fatal(err)
	}

	got, err := parseChnaChunk(bytes.NewReader(buf.Bytes()), c.Size())
	if err != nil {
		t.Fatal(err)
	}

	if got.NumUIDs() != 3 {
		t.Errorf("NumUIDs = %d, want 3", got.NumUIDs())
	}
	if got.NumTracks() != 2 {
		t.Errorf("NumTracks = %d, want 2 (distinct TrackIndex values 1 and 2)", got.NumTracks())
	}
	if got.AudioIDs[0].UID != "ATU_00000001" {
		t.Errorf("AudioIDs[0].UID = %q, want %q", got.AudioIDs[0].UID, "ATU_00000001")
	}
}

func TestChnaChunkWireOrderIsNumTracksBeforeNumUids(t *testing.T) {
	c := &ChnaChunk{AudioIDs: []AudioID{
		{TrackIndex: 1, UID: "ATU_00000001", TrackRef: "ATU_0000000100", PackRef: "AP_00010001"},
	}}

	buf := new(bytes.Buffer)
	if err := c.Write(buf); err != nil {
		t.Fatal(err)
	}

	wire := buf.Bytes()
	numTracks := uint16(wire[0]) | uint16(wire[1])<<8
	numUIDs := uint16(wire[2]) | uint16(wire[3])<<8

	if numTracks != 1 {
		t.Errorf("first u16 on wire (numTracks) = %d, want 1", numTracks)
	}
	if numUIDs != 1 {
		t.Errorf("second u16 on wire (numUids) = %d, want 1", numUIDs)
	}
}

func TestChnaChunkRejectsZeroTrackIndex(t *testing.T) {
	c := &ChnaChunk{AudioIDs: []AudioID{{TrackIndex: 0, UID: "x"}}}

	if err := c.Write(new(bytes.Buffer)); err == nil {
		t.Fatal("expected rejection of zero trackIndex")
	} else if !IsKind(err, KindState) {
		t.Errorf("expected StateError, got %v", err)
	}
}

func TestChnaChunkRejectsOverCapacity(t *testing.T) {
	ids := make([]AudioID, maxNumberOfUIDs+1)
	for i := range ids {
		ids[i] = AudioID{TrackIndex: uint16(i + 1)}
	}
	c := &ChnaChunk{AudioIDs: ids}

	if err := c.Write(new(bytes.Buffer)); err == nil {
		t.Fatal("expected CapacityError above 1024 uids")
	} else if !IsKind(err, KindCapacity) {
		t.Errorf("expected CapacityError, got %v", err)
	}
}

func TestParseChnaChunkToleratesTrailingBytes(t *testing.T) {
	c := &ChnaChunk{AudioIDs: []AudioID{{TrackIndex: 1, UID: "ATU_00000001"}}}

	buf := new(bytes.Buffer)
	if err := c.Write(buf); err != nil {
		t.Fatal(err)
	}
	buf.Write(make([]byte, 16))

	got, err := parseChnaChunk(bytes.NewReader(buf.Bytes()), uint64(buf.Len()))
	if err != nil {
		t.Fatalf("expected trailing bytes in reserved chna region to be tolerated: %v", err)
	}
	if got.NumUIDs() != 1 {
		t.Errorf("NumUIDs = %d, want 1", got.NumUIDs())
	}
}

func TestParseChnaChunkRejectsNumTracksMismatch(t *testing.T) {
	buf := new(bytes.Buffer)
	_ = writeLE(buf, "test", uint16(99)) // bogus numTracks
	_ = writeLE(buf, "test", uint16(1))  // numUids = 1
	_ = writeLE(buf, "test", uint16(1))  // trackIndex
	buf.Write(make([]byte, audioIDWireSize-2))

	if _, err := parseChnaChunk(bytes.NewReader(buf.Bytes()), uint64(buf.Len())); err == nil {
		t.Fatal("expected FormatError for numTracks/derived mismatch")
	} else if !IsKind(err, KindFormat) {
		t.Errorf("expected FormatError, got %v", err)
	}
}
