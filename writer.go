package bw64

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
)

// WriterOption configures NewWriter's skeleton before any samples are
// streamed.
type WriterOption func(*writerConfig)

type writerConfig struct {
	useExtensible bool
	useFloat      bool
	channelMask   uint32
	preDataChunks []Chunk
	maxMarkers    int
	useRF64       bool
}

func defaultWriterConfig() *writerConfig {
	return &writerConfig{}
}

// WithFloat selects IEEE_FLOAT samples instead of PCM.
func WithFloat() WriterOption {
	return func(c *writerConfig) { c.useFloat = true }
}

// WithExtensible selects a WAVE_FORMAT_EXTENSIBLE fmt chunk carrying the
// given channel mask.
func WithExtensible(channelMask uint32) WriterOption {
	return func(c *writerConfig) {
		c.useExtensible = true
		c.channelMask = channelMask
	}
}

// WithPreDataChunks writes chunks, in order, between the fmt chunk and
// any cue/chna reservation. A *ChnaChunk among them is written verbatim
// and is not later reservable via SetChnaChunk.
func WithPreDataChunks(chunks ...Chunk) WriterOption {
	return func(c *writerConfig) { c.preDataChunks = append(c.preDataChunks, chunks...) }
}

// WithMaxMarkers reserves a cue chunk region sized for up to n cue
// points. AddMarker/AddMarkers fail with StateError without this.
func WithMaxMarkers(n int) WriterOption {
	return func(c *writerConfig) { c.maxMarkers = n }
}

// WithRF64Id prefers the RF64 outer id over BW64 when the file is
// promoted to 64-bit sizes at Close.
func WithRF64Id() WriterOption {
	return func(c *writerConfig) { c.useRF64 = true }
}

type trackedHeader struct {
	id           FourCC
	position     uint64
	reservedSize uint64
}

// Writer streams samples into a new file whose final size is unknown at
// open time. Construction lays out a fixed skeleton of placeholders;
// Close rewrites them in place and appends any post-data chunks.
type Writer struct {
	ws   io.WriteSeeker
	file io.Closer

	cursor uint64

	useRF64 bool

	fmtChunk *FormatInfo

	junkHeaderPos uint64

	dataHeaderPos uint64
	dataStart     uint64
	dataSize      uint64

	cueReserved     bool
	cueHeaderPos    uint64
	cueReservedSize uint64
	cueChunk        *CueChunk

	chnaIsPreData   bool
	chnaHeaderPos   uint64
	chnaReservedSize uint64
	chnaChunk       *ChnaChunk

	axmlChunk *AxmlChunk

	postDataChunks []Chunk

	tracked []trackedHeader

	closed bool
}

// NewWriter opens ws for streaming and writes the fixed skeleton: RIFF
// header, JUNK placeholder for the eventual ds64, fmt chunk, caller
// pre-data chunks, optional cue reservation, chna reservation (unless
// supplied in pre-data), and a zero-size data header.
func NewWriter(ws io.WriteSeeker, channels uint16, sampleRate uint32, bitsPerSample uint16, opts ...WriterOption) (*Writer, error) {
	const op = "NewWriter"

	cfg := defaultWriterConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	w := &Writer{ws: ws, useRF64: cfg.useRF64}

	if err := writeFourCC(ws, op, idRIFF); err != nil {
		return nil, err
	}
	if err := writeLE(ws, op, uint32(0xFFFFFFFF)); err != nil {
		return nil, err
	}
	if err := writeFourCC(ws, op, idWAVE); err != nil {
		return nil, err
	}
	w.cursor = 12

	w.junkHeaderPos = w.cursor
	if err := writeChunkPlaceholder(ws, op, idJunk, 40); err != nil {
		return nil, err
	}
	w.cursor += 8 + 40

	var fmtChunk *FormatInfo
	var err error
	if cfg.useExtensible {
		fmtChunk, err = NewFormatInfoExtensible(channels, sampleRate, bitsPerSample, cfg.useFloat, cfg.channelMask)
	} else {
		fmtChunk, err = NewFormatInfo(channels, sampleRate, bitsPerSample, cfg.useFloat)
	}
	if err != nil {
		return nil, err
	}
	w.fmtChunk = fmtChunk

	fmtPos := w.cursor
	if err := writeChunk(ws, op, fmtChunk); err != nil {
		return nil, err
	}
	w.cursor += 8 + fmtChunk.Size() + uint64(padSize(fmtChunk.Size()))
	w.track(idFmt, fmtPos, fmtChunk.Size())

	for _, c := range cfg.preDataChunks {
		if chna, ok := c.(*ChnaChunk); ok {
			w.chnaIsPreData = true
			w.chnaChunk = chna
		}

		pos := w.cursor
		if err := writeChunk(ws, op, c); err != nil {
			return nil, err
		}
		w.cursor += 8 + c.Size() + uint64(padSize(c.Size()))
		w.track(c.ID(), pos, c.Size())
	}

	if cfg.maxMarkers > 0 {
		reserved := uint64(4 + cfg.maxMarkers*cuePointWireSize)
		w.cueReserved = true
		w.cueHeaderPos = w.cursor
		w.cueReservedSize = reserved

		if err := writeChunkPlaceholder(ws, op, idCue, uint32(reserved)); err != nil {
			return nil, err
		}
		w.cursor += 8 + reserved
		w.cueChunk = &CueChunk{}
		w.track(idCue, w.cueHeaderPos, reserved)
	}

	if !w.chnaIsPreData {
		reserved := uint64(maxNumberOfUIDs*audioIDWireSize + 4)
		w.chnaHeaderPos = w.cursor
		w.chnaReservedSize = reserved

		if err := writeChunkPlaceholder(ws, op, idChna, uint32(reserved)); err != nil {
			return nil, err
		}
		w.cursor += 8 + reserved
		w.track(idChna, w.chnaHeaderPos, reserved)
	}

	w.dataHeaderPos = w.cursor
	if err := writeChunkPlaceholder(ws, op, idData, 0); err != nil {
		return nil, err
	}
	w.cursor += 8
	w.dataStart = w.cursor

	return w, nil
}

// NewWriterWithMarkers is a convenience constructor that reserves cue
// space for len(markers) entries (plus any extra requested via
// WithMaxMarkers, if larger) and adds them immediately after
// construction.
func NewWriterWithMarkers(ws io.WriteSeeker, channels uint16, sampleRate uint32, bitsPerSample uint16, markers []CuePoint, opts ...WriterOption) (*Writer, error) {
	needed := len(markers)

	opts = append(opts, func(c *writerConfig) {
		if c.maxMarkers < needed {
			c.maxMarkers = needed
		}
	})

	w, err := NewWriter(ws, channels, sampleRate, bitsPerSample, opts...)
	if err != nil {
		return nil, err
	}

	if err := w.AddMarkers(markers); err != nil {
		return nil, err
	}

	return w, nil
}

// track records a written chunk's header position and true body size, for
// the oversize/ds64-table scan finalizeRiff runs at Close.
func (w *Writer) track(id FourCC, headerPos uint64, size uint64) {
	w.tracked = append(w.tracked, trackedHeader{id: id, position: headerPos, reservedSize: size})
}

func (w *Writer) FormatTag() uint16      { return w.fmtChunk.FormatTag }
func (w *Writer) Channels() uint16       { return w.fmtChunk.NumChannels }
func (w *Writer) SampleRate() uint32     { return w.fmtChunk.SampleRate }
func (w *Writer) BitDepth() uint16       { return w.fmtChunk.BitsPerSample }
func (w *Writer) BlockAlignment() uint16 { return w.fmtChunk.BlockAlign }

// Write transcodes buf's first frames*channels samples to the on-disk
// layout and appends them to the data region.
func (w *Writer) Write(buf *audio.Float32Buffer, frames int) error {
	const op = "Writer.Write"

	channels := int(w.fmtChunk.NumChannels)
	n := frames * channels
	if n > len(buf.Data) {
		return newStateError(op, fmt.Errorf("buffer has %d samples, need %d for %d frames", len(buf.Data), n, frames))
	}

	encoded := encodeSamples(buf.Data[:n], w.fmtChunk.BitsPerSample, w.fmtChunk.IsFloat())

	if _, err := w.ws.Write(encoded); err != nil {
		return newIOError(op, err)
	}

	w.dataSize += uint64(len(encoded))
	w.cursor += uint64(len(encoded))

	return nil
}

// WriteRaw appends raw bytes to the data region after verifying
// elementSize matches bitsPerSample/8.
func (w *Writer) WriteRaw(raw []byte, elementSize int) error {
	const op = "Writer.WriteRaw"

	if elementSize != int(w.fmtChunk.BitsPerSample)/8 {
		return newStateError(op, errElementSizeWrong)
	}

	if _, err := w.ws.Write(raw); err != nil {
		return newIOError(op, err)
	}

	w.dataSize += uint64(len(raw))
	w.cursor += uint64(len(raw))

	return nil
}

// PostDataChunk queues a chunk to be written after the data region at
// Close, in the order queued.
func (w *Writer) PostDataChunk(c Chunk) {
	w.postDataChunks = append(w.postDataChunks, c)
}

// SetChnaChunk sets the chunk that Close writes over the reserved chna
// region. It fails with
// CapacityError if numUids exceeds 1024, matching the placeholder's
// fixed capacity.
func (w *Writer) SetChnaChunk(c *ChnaChunk) error {
	const op = "Writer.SetChnaChunk"

	if c.NumUIDs() > maxNumberOfUIDs {
		return newCapacityError(op, errChnaTooManyUids)
	}

	if w.chnaIsPreData {
		return newStateError(op, fmt.Errorf("chna was supplied as a pre-data chunk and cannot be overwritten"))
	}

	w.chnaChunk = c

	return nil
}

// SetAxmlChunk queues ADM XML to be appended as a post-data chunk at
// Close.
func (w *Writer) SetAxmlChunk(a *AxmlChunk) {
	w.axmlChunk = a
}

// AddMarker adds one cue point. It requires a reserved cue region and a
// unique id, and keeps cue points in position order.
func (w *Writer) AddMarker(p CuePoint) error {
	const op = "Writer.AddMarker"

	if !w.cueReserved {
		return newStateError(op, errNoCueReserved)
	}

	return w.cueChunk.AddCuePoint(p)
}

// AddMarkers adds each marker in order via AddMarker.
func (w *Writer) AddMarkers(markers []CuePoint) error {
	for _, m := range markers {
		if err := w.AddMarker(m); err != nil {
			return err
		}
	}

	return nil
}

// Close runs the finalization sequence: pad the data region if odd,
// rewrite the data header, fold cue labels into a LIST(adtl) and
// overwrite the reserved cue region, write queued post-data chunks,
// then finalize the RIFF/ds64 header. Close is idempotent.
func (w *Writer) Close() error {
	const op = "Writer.Close"

	if w.closed {
		return nil
	}
	w.closed = true

	if padSize(w.dataSize) == 1 {
		if _, err := w.ws.Write([]byte{0}); err != nil {
			return newIOError(op, err)
		}
		w.cursor++
	}

	if err := w.overwriteDataHeader(); err != nil {
		return err
	}

	if err := w.finalizeCue(); err != nil {
		return err
	}

	if err := w.finalizeChna(); err != nil {
		return err
	}

	if w.axmlChunk != nil {
		w.postDataChunks = append(w.postDataChunks, w.axmlChunk)
	}

	if err := w.writePostDataChunks(); err != nil {
		return err
	}

	if err := w.finalizeRiff(); err != nil {
		return err
	}

	if f, ok := w.ws.(*os.File); ok {
		if err := f.Sync(); err != nil {
			return newIOError(op, err)
		}
	}

	if w.file != nil {
		file := w.file
		w.file = nil

		if err := file.Close(); err != nil {
			return newIOError(op, err)
		}
	}

	return nil
}

func (w *Writer) overwriteDataHeader() error {
	const op = "Writer.overwriteDataHeader"

	clamped := w.dataSize
	if clamped > 0xFFFFFFFF {
		clamped = 0xFFFFFFFF
	}

	if _, err := w.ws.Seek(int64(w.dataHeaderPos), io.SeekStart); err != nil {
		return newIOError(op, err)
	}
	if err := writeFourCC(w.ws, op, idData); err != nil {
		return err
	}
	if err := writeLE(w.ws, op, uint32(clamped)); err != nil {
		return err
	}

	if _, err := w.ws.Seek(int64(w.cursor), io.SeekStart); err != nil {
		return newIOError(op, err)
	}

	w.track(idData, w.dataHeaderPos, w.dataSize)

	return nil
}

// finalizeCue projects non-empty cue labels into a LIST(adtl) queued for
// post-data, then overwrites the reserved cue region in place — the
// region keeps its full reserved declared size regardless of actual
// content length, so chna/data stay at their fixed physical offsets;
// unused trailing bytes are zero and tolerated by parseCueChunk.
func (w *Writer) finalizeCue() error {
	if !w.cueReserved || len(w.cueChunk.Points()) == 0 {
		return nil
	}

	if labels := w.cueChunk.Labels(); len(labels) > 0 {
		w.postDataChunks = append(w.postDataChunks, NewAdtlListChunk(labels))
	}

	return w.overwriteReserved("Writer.finalizeCue", w.cueHeaderPos, w.cueReservedSize, w.cueChunk)
}

// finalizeChna overwrites the reserved chna region if SetChnaChunk was
// called; an unset reservation is left as its zero-filled placeholder,
// which decodes as a valid empty chna chunk.
func (w *Writer) finalizeChna() error {
	if w.chnaIsPreData || w.chnaChunk == nil {
		return nil
	}

	return w.overwriteReserved("Writer.finalizeChna", w.chnaHeaderPos, w.chnaReservedSize, w.chnaChunk)
}

// overwriteReserved fails with CapacityError if the chunk's true size
// exceeds the reserved region; otherwise it rewrites the header
// (declaring the full reserved size, not the smaller actual content
// size) and body in place, restoring the write cursor to the end of
// stream afterward.
func (w *Writer) overwriteReserved(op string, headerPos uint64, reservedSize uint64, c Chunk) error {
	if c.Size() > reservedSize {
		return newCapacityError(op, errChunkTooBig)
	}

	if _, err := w.ws.Seek(int64(headerPos), io.SeekStart); err != nil {
		return newIOError(op, err)
	}
	if err := writeFourCC(w.ws, op, c.ID()); err != nil {
		return err
	}
	if err := writeLE(w.ws, op, uint32(reservedSize)); err != nil {
		return err
	}
	if err := c.Write(w.ws); err != nil {
		return err
	}

	if pad := reservedSize - c.Size(); pad > 0 {
		if _, err := w.ws.Write(make([]byte, pad)); err != nil {
			return newIOError(op, err)
		}
	}

	if _, err := w.ws.Seek(int64(w.cursor), io.SeekStart); err != nil {
		return newIOError(op, err)
	}

	return nil
}

func (w *Writer) writePostDataChunks() error {
	const op = "Writer.writePostDataChunks"

	for _, c := range w.postDataChunks {
		pos := w.cursor
		if err := writeChunk(w.ws, op, c); err != nil {
			return err
		}
		w.cursor += 8 + c.Size() + uint64(padSize(c.Size()))
		w.track(c.ID(), pos, c.Size())
	}

	return nil
}

// finalizeRiff decides whether the file is oversize, promotes the outer
// container to BW64/RF64 and writes a ds64 chunk over the JUNK
// placeholder if so, or writes a plain RIFF header otherwise.
func (w *Writer) finalizeRiff() error {
	const op = "Writer.finalizeRiff"

	totalSize := w.cursor - 8

	oversize := totalSize > 0xFFFFFFFF || w.dataSize > 0xFFFFFFFF
	for _, t := range w.tracked {
		if t.reservedSize > 0xFFFFFFFF {
			oversize = true
		}
	}

	if _, err := w.ws.Seek(0, io.SeekStart); err != nil {
		return newIOError(op, err)
	}

	if !oversize {
		if err := writeFourCC(w.ws, op, idRIFF); err != nil {
			return err
		}

		return writeLE(w.ws, op, uint32(totalSize))
	}

	outerID := idBW64
	if w.useRF64 {
		outerID = idRF64
	}

	if err := writeFourCC(w.ws, op, outerID); err != nil {
		return err
	}
	if err := writeLE(w.ws, op, uint32(0xFFFFFFFF)); err != nil {
		return err
	}

	ds64 := newDataSize64()
	ds64.BW64Size = totalSize
	ds64.DataSize = w.dataSize

	for _, t := range w.tracked {
		if t.reservedSize > 0xFFFFFFFF {
			ds64.Table[t.id] = t.reservedSize
		}
	}

	return w.overwriteReserved(op, w.junkHeaderPos, 40, ds64)
}
