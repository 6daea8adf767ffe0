package bw64

// Marker is the read-side view of a cue point joined with its labl text.
// The wire-level cue and LIST(adtl)/labl chunks stay independent on disk;
// the Reader attaches the labels to its cue points at open time, so the
// points returned by CueChunk() carry them too.
type Marker = CuePoint

// GetMarkers returns a copy of the cue point vector with labels attached,
// in stored (position-ascending) order. It returns nil if the file has
// no cue chunk.
func (r *Reader) GetMarkers() []Marker {
	if r.cueChunk == nil {
		return nil
	}

	points := r.cueChunk.Points()
	markers := make([]Marker, len(points))
	copy(markers, points)

	return markers
}

// FindMarkerByID returns the first cue point with the given id, if any.
func (r *Reader) FindMarkerByID(id uint32) (Marker, bool) {
	if r.cueChunk == nil {
		return Marker{}, false
	}

	return r.cueChunk.FindByID(id)
}
