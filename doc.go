// Package bw64 reads and writes Broadcast Wave 64 (BW64/RF64) files, the
// RIFF/WAVE extension used for broadcast audio payloads larger than 4 GiB
// and for carrying Audio Definition Model (ADM) metadata.
//
// Reader opens an existing file for random-access decoding of interleaved
// audio samples. Writer streams samples into a new file whose final size is
// unknown at open time, promoting the container to BW64/RF64 and writing a
// ds64 chunk on Close if the result exceeds 4 GiB.
//
// The package treats axml (ADM XML) as an opaque byte blob and does not
// interpret it. Cue points and their labl text are joined into a single
// Marker view; the underlying cue and LIST(adtl) chunks stay independent on
// the wire.
package bw64
