package bw64

import (
	"bytes"
	"testing"
)

func TestGUIDRoundTrip(t *testing.T) {
	g := subFormatGUID(true)

	buf := new(bytes.Buffer)
	if err := writeGUID(buf, "test", g); err != nil {
		t.Fatal(err)
	}

	got, err := readGUID(bytes.NewReader(buf.Bytes()), "test")
	if err != nil {
		t.Fatal(err)
	}

	if !got.Equal(g) {
		t.Errorf("round-trip mismatch: got %+v, want %+v", got, g)
	}
}

func TestSubFormatGUIDDistinguishesPCMAndFloat(t *testing.T) {
	pcm := subFormatGUID(false)
	float := subFormatGUID(true)

	if pcm.Equal(float) {
		t.Fatal("expected PCM and float subformat GUIDs to differ")
	}
	if pcm.Data1 != uint32(wavFormatPCM) {
		t.Errorf("PCM subformat Data1 = %#x, want %#x", pcm.Data1, wavFormatPCM)
	}
	if float.Data1 != uint32(wavFormatIEEEFloat) {
		t.Errorf("float subformat Data1 = %#x, want %#x", float.Data1, wavFormatIEEEFloat)
	}
}
