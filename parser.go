package bw64

import "io"

// parseChunk dispatches on header.ID to the variant parser, seeking to
// the start of the chunk body first. ds64 is parsed separately by the
// Reader (it must be the chunk immediately following the outer header on
// BW64/RF64 files) and never reaches this dispatch table.
func parseChunk(rs io.ReadSeeker, header ChunkHeader) (Chunk, error) {
	const op = "parseChunk"

	if _, err := rs.Seek(int64(header.Position)+8, io.SeekStart); err != nil {
		return nil, newIOError(op, err)
	}

	switch header.ID {
	case idFmt:
		return parseFormatInfo(rs, header.Size)
	case idData:
		return parseDataChunk(header.Size), nil
	case idChna:
		return parseChnaChunk(rs, header.Size)
	case idAxml:
		return parseAxmlChunk(rs, header.Size)
	case idCue:
		return parseCueChunk(rs, header.Size)
	case idList:
		return parseListChunk(rs, header.Size)
	case idLabl:
		return parseLabelChunk(rs, header.Size)
	default:
		return parseUnknownChunk(rs, header.ID, header.Size)
	}
}
