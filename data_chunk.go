package bw64

import (
	"fmt"
	"io"
)

// DataChunk tracks the size of the sample payload without ever
// materializing its body in memory; callers stream samples through
// Reader/Writer instead.
type DataChunk struct {
	size uint64
}

func (d *DataChunk) ID() FourCC { return idData }

func (d *DataChunk) Size() uint64 { return d.size }

func (d *DataChunk) Write(w io.Writer) error {
	return newStateError("DataChunk.Write", fmt.Errorf("data chunk body is streamed directly, never buffered"))
}

func parseDataChunk(size uint64) *DataChunk {
	return &DataChunk{size: size}
}
