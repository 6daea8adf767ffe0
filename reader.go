package bw64

import (
	"fmt"
	"io"

	"github.com/go-audio/audio"
)

// Reader opens an existing BW64/RF64/RIFF WAVE file for random-access
// decoding. It requires a seekable source; there is no streaming-decode
// path for non-seekable inputs.
type Reader struct {
	rs   io.ReadSeeker
	file io.Closer

	outerID   FourCC
	outerSize uint64
	ds64      *DataSize64

	headers []ChunkHeader

	fmtChunk  *FormatInfo
	dataChunk *DataChunk
	dataHdr   ChunkHeader

	chnaChunk *ChnaChunk
	axmlChunk *AxmlChunk
	cueChunk  *CueChunk

	listChunks    []*ListChunk
	unknownChunks []*UnknownChunk

	dataStart uint64
}

// NewReader parses rs's container structure and positions it at the
// start of the data chunk body.
func NewReader(rs io.ReadSeeker) (*Reader, error) {
	const op = "NewReader"

	r := &Reader{rs: rs}

	if err := r.readOuterHeader(); err != nil {
		return nil, err
	}

	if r.outerID == idBW64 || r.outerID == idRF64 {
		if err := r.readMandatoryDs64(); err != nil {
			return nil, err
		}
	}

	if err := r.scanHeaders(); err != nil {
		return nil, err
	}

	if err := r.parseBodies(); err != nil {
		return nil, err
	}

	if r.fmtChunk == nil {
		return nil, newFormatError(op, errMissingFmtChunk)
	}
	if r.dataChunk == nil {
		return nil, newFormatError(op, errMissingDataChunk)
	}

	r.associateCueLabels()

	if _, err := r.rs.Seek(int64(r.dataStart), io.SeekStart); err != nil {
		return nil, newIOError(op, err)
	}

	return r, nil
}

func (r *Reader) readOuterHeader() error {
	const op = "Reader.readOuterHeader"

	id, err := readFourCC(r.rs, op)
	if err != nil {
		return err
	}
	if id != idRIFF && id != idBW64 && id != idRF64 {
		return newFormatError(op, errNotRiffWave)
	}
	r.outerID = id

	var rawSize uint32
	if err := readLE(r.rs, op, &rawSize); err != nil {
		return err
	}
	r.outerSize = uint64(rawSize)

	form, err := readFourCC(r.rs, op)
	if err != nil {
		return err
	}
	if form != idWAVE {
		return newFormatError(op, fmt.Errorf("expected WAVE form type, got %q", form))
	}

	return nil
}

func (r *Reader) readMandatoryDs64() error {
	const op = "Reader.readMandatoryDs64"

	pos, err := r.rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return newIOError(op, err)
	}

	id, err := readFourCC(r.rs, op)
	if err != nil {
		return err
	}
	if id != idDs64 {
		return newFormatError(op, errMissingDs64Chunk)
	}

	var rawSize uint32
	if err := readLE(r.rs, op, &rawSize); err != nil {
		return err
	}

	ds64, err := parseDataSize64(r.rs, uint64(rawSize))
	if err != nil {
		return err
	}
	r.ds64 = ds64
	r.outerSize = ds64.BW64Size

	header := ChunkHeader{ID: idDs64, Size: uint64(rawSize), Position: uint64(pos)}
	r.headers = append(r.headers, header)

	if padSize(uint64(rawSize)) == 1 {
		if _, err := r.rs.Seek(1, io.SeekCurrent); err != nil {
			return newIOError(op, err)
		}
	}

	return nil
}

// resolveSize overlays ds64 values onto a raw 32-bit header size: the
// outer RIFF size becomes bw64Size, the data chunk size becomes dataSize,
// and any id present in ds64's table becomes its table value.
func (r *Reader) resolveSize(id FourCC, raw uint32) uint64 {
	if r.ds64 == nil {
		return uint64(raw)
	}

	if id == idData {
		return r.ds64.DataSize
	}
	if v, ok := r.ds64.HasChunkSize(id); ok {
		return v
	}

	return uint64(raw)
}

// scanHeaders linearly walks the remaining chunk headers to EOF. The pad
// byte following an odd-sized chunk is skipped for every chunk except
// one flush against EOF, matching the tolerated-but-not-required trailing
// pad rule documented for this package.
func (r *Reader) scanHeaders() error {
	const op = "Reader.scanHeaders"

	end, err := r.rs.Seek(0, io.SeekEnd)
	if err != nil {
		return newIOError(op, err)
	}

	// Resume scanning from just after whatever was already consumed
	// (outer header, optional ds64); rewind to that point since the
	// SeekEnd above moved the cursor.
	resume, err := r.resumePosition()
	if err != nil {
		return err
	}
	if _, err := r.rs.Seek(resume, io.SeekStart); err != nil {
		return newIOError(op, err)
	}

	fileEnd := uint64(end)

	for {
		pos, err := r.rs.Seek(0, io.SeekCurrent)
		if err != nil {
			return newIOError(op, err)
		}
		if uint64(pos)+8 > fileEnd {
			break
		}

		id, err := readFourCC(r.rs, op)
		if err != nil {
			return err
		}

		var rawSize uint32
		if err := readLE(r.rs, op, &rawSize); err != nil {
			return err
		}

		size := r.resolveSize(id, rawSize)
		header := ChunkHeader{ID: id, Size: size, Position: uint64(pos)}

		chunkEnd := header.chunkEnd()
		if chunkEnd > fileEnd {
			return newFormatError(op, fmt.Errorf("chunk %q at %d overruns file (end %d > %d)", id, pos, chunkEnd, fileEnd))
		}

		r.headers = append(r.headers, header)
		if id == idData {
			r.dataHdr = header
			r.dataStart = header.Position + 8
		}

		skip := int64(size)
		if chunkEnd < fileEnd && padSize(size) == 1 {
			skip++
		}

		if _, err := r.rs.Seek(skip, io.SeekCurrent); err != nil {
			return newIOError(op, err)
		}
	}

	return nil
}

// resumePosition is the offset scanHeaders should continue from: right
// after the 12-byte outer header, plus the ds64 chunk and its pad if one
// was parsed.
func (r *Reader) resumePosition() (int64, error) {
	if r.ds64 == nil {
		return 12, nil
	}

	for _, h := range r.headers {
		if h.ID == idDs64 {
			end := int64(h.chunkEnd())
			if padSize(h.Size) == 1 {
				end++
			}
			return end, nil
		}
	}

	return 12, nil
}

func (r *Reader) parseBodies() error {
	for _, h := range r.headers {
		if h.ID == idDs64 {
			continue
		}

		c, err := parseChunk(r.rs, h)
		if err != nil {
			return err
		}

		switch v := c.(type) {
		case *FormatInfo:
			r.fmtChunk = v
		case *DataChunk:
			r.dataChunk = v
		case *ChnaChunk:
			r.chnaChunk = v
		case *AxmlChunk:
			r.axmlChunk = v
		case *CueChunk:
			r.cueChunk = v
		case *ListChunk:
			r.listChunks = append(r.listChunks, v)
		case *UnknownChunk:
			r.unknownChunks = append(r.unknownChunks, v)
		}
	}

	return nil
}

// associateCueLabels walks every LIST(adtl)'s labl sub-chunks and writes
// their text into the matching CuePoint by id.
func (r *Reader) associateCueLabels() {
	if r.cueChunk == nil {
		return
	}

	for _, l := range r.listChunks {
		if l.ListType != idAdtl {
			continue
		}

		for id, text := range l.Labels() {
			r.cueChunk.setLabel(id, text)
		}
	}
}

// FormatTag, Channels, SampleRate, BitDepth, BlockAlignment expose the
// fmt chunk's key fields directly as a flat accessor surface.
func (r *Reader) FormatTag() uint16      { return r.fmtChunk.FormatTag }
func (r *Reader) Channels() uint16       { return r.fmtChunk.NumChannels }
func (r *Reader) SampleRate() uint32     { return r.fmtChunk.SampleRate }
func (r *Reader) BitDepth() uint16       { return r.fmtChunk.BitsPerSample }
func (r *Reader) BlockAlignment() uint16 { return r.fmtChunk.BlockAlign }
func (r *Reader) IsFloat() bool          { return r.fmtChunk.IsFloat() }

// NumberOfFrames is dataChunk.size / blockAlignment; any residual bytes
// below one full frame are ignored.
func (r *Reader) NumberOfFrames() uint64 {
	if r.fmtChunk.BlockAlign == 0 {
		return 0
	}

	return r.dataChunk.Size() / uint64(r.fmtChunk.BlockAlign)
}

// FmtChunk, DataChunk, Ds64Chunk, ChnaChunk, AxmlChunk, CueChunk are
// typed accessors onto the parsed chunk set; any may be nil except
// FmtChunk and DataChunk, which NewReader guarantees present.
func (r *Reader) FmtChunk() *FormatInfo   { return r.fmtChunk }
func (r *Reader) DataChunk() *DataChunk   { return r.dataChunk }
func (r *Reader) Ds64Chunk() *DataSize64  { return r.ds64 }
func (r *Reader) ChnaChunk() *ChnaChunk   { return r.chnaChunk }
func (r *Reader) AxmlChunk() *AxmlChunk   { return r.axmlChunk }
func (r *Reader) CueChunk() *CueChunk     { return r.cueChunk }
func (r *Reader) GetListChunks() []*ListChunk { return r.listChunks }

// UnknownChunks returns every chunk with an unrecognized id encountered
// during parsing. They are preserved in memory for inspection, but a
// Writer has no facility to reinject them.
func (r *Reader) UnknownChunks() []*UnknownChunk { return r.unknownChunks }

// Chunks returns every chunk header recorded during the scan, in file
// order, including ds64.
func (r *Reader) Chunks() []ChunkHeader { return r.headers }

// HasChunk reports whether a chunk with the given id was recorded.
func (r *Reader) HasChunk(id FourCC) bool {
	for _, h := range r.headers {
		if h.ID == id {
			return true
		}
	}

	return false
}

// Seek interprets offset/whence in frames (not bytes), clamps to
// [0, NumberOfFrames()], and repositions the underlying stream.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	const op = "Reader.Seek"

	cur, err := r.tellFrame()
	if err != nil {
		return 0, err
	}

	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = cur + offset
	case io.SeekEnd:
		target = int64(r.NumberOfFrames()) + offset
	default:
		return 0, newIOError(op, fmt.Errorf("invalid whence %d", whence))
	}

	if target < 0 {
		target = 0
	}
	if uint64(target) > r.NumberOfFrames() {
		target = int64(r.NumberOfFrames())
	}

	abs := r.dataStart + uint64(target)*uint64(r.fmtChunk.BlockAlign)
	if _, err := r.rs.Seek(int64(abs), io.SeekStart); err != nil {
		return 0, newIOError(op, err)
	}

	return target, nil
}

func (r *Reader) tellFrame() (int64, error) {
	const op = "Reader.tell"

	pos, err := r.rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, newIOError(op, err)
	}

	return (pos - int64(r.dataStart)) / int64(r.fmtChunk.BlockAlign), nil
}

// Tell returns the current frame position.
func (r *Reader) Tell() int64 {
	f, _ := r.tellFrame()
	return f
}

// EOF reports whether the read cursor is at or past frame
// NumberOfFrames(), i.e. no frames remain to be read.
func (r *Reader) EOF() bool {
	f, err := r.tellFrame()
	if err != nil {
		return true
	}

	return uint64(f) >= r.NumberOfFrames()
}

// Read fills buf (interleaved, one float32 per channel per frame) with up
// to frames frames, clamped to what remains, transcoding from the
// on-disk PCM/float layout. It returns the number of frames actually
// read.
func (r *Reader) Read(buf *audio.Float32Buffer, frames int) (int, error) {
	const op = "Reader.Read"

	remaining, err := r.remainingFrames()
	if err != nil {
		return 0, err
	}
	if frames > remaining {
		frames = remaining
	}
	if frames <= 0 {
		return 0, nil
	}

	blockAlign := int(r.fmtChunk.BlockAlign)
	raw := make([]byte, frames*blockAlign)
	if _, err := io.ReadFull(r.rs, raw); err != nil {
		return 0, newIOError(op, err)
	}

	samples := decodeSamples(raw, r.fmtChunk.BitsPerSample, r.fmtChunk.IsFloat())
	if buf.Data == nil || len(buf.Data) < len(samples) {
		buf.Data = make([]float32, len(samples))
	}
	copy(buf.Data, samples)
	buf.Data = buf.Data[:len(samples)]
	buf.Format = &audio.Format{NumChannels: int(r.fmtChunk.NumChannels), SampleRate: int(r.fmtChunk.SampleRate)}

	return frames, nil
}

// ReadRaw bypasses sample transcoding; elementSize must equal
// bitsPerSample/8 or this fails with FormatError.
func (r *Reader) ReadRaw(dest []byte, frames int, elementSize int) (int, error) {
	const op = "Reader.ReadRaw"

	if elementSize != int(r.fmtChunk.BitsPerSample)/8 {
		return 0, newFormatError(op, errElementSizeWrong)
	}

	remaining, err := r.remainingFrames()
	if err != nil {
		return 0, err
	}
	if frames > remaining {
		frames = remaining
	}
	if frames <= 0 {
		return 0, nil
	}

	blockAlign := int(r.fmtChunk.BlockAlign)
	n := frames * blockAlign
	if len(dest) < n {
		n = len(dest) - len(dest)%blockAlign
		frames = n / blockAlign
	}

	if _, err := io.ReadFull(r.rs, dest[:n]); err != nil {
		return 0, newIOError(op, err)
	}

	return frames, nil
}

func (r *Reader) remainingFrames() (int, error) {
	f, err := r.tellFrame()
	if err != nil {
		return 0, err
	}

	remaining := int64(r.NumberOfFrames()) - f
	if remaining < 0 {
		remaining = 0
	}

	return int(remaining), nil
}

// GetMarkers, FindMarkerByID are defined in markers.go.

// Close is idempotent. If rs was opened by ReadFile, this releases the
// underlying file handle; otherwise the caller retains ownership of rs.
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}

	file := r.file
	r.file = nil

	if err := file.Close(); err != nil {
		return newIOError("Reader.Close", err)
	}

	return nil
}
