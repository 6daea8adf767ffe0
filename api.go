package bw64

import "os"

// ReadFile opens path and parses it as a BW64/RF64/RIFF WAVE file. The
// returned Reader owns the file handle; Close releases it.
func ReadFile(path string) (*Reader, error) {
	const op = "ReadFile"

	f, err := os.Open(path)
	if err != nil {
		return nil, newIOError(op, err)
	}

	r, err := NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	r.file = f

	return r, nil
}

// WriteFile creates path and returns a Writer for it, applying the
// caller's channels/sampleRate/bitsPerSample and any WriterOption. The
// returned Writer owns the file handle; Close releases it after
// finalization.
func WriteFile(path string, channels uint16, sampleRate uint32, bitsPerSample uint16, opts ...WriterOption) (*Writer, error) {
	const op = "WriteFile"

	f, err := os.Create(path)
	if err != nil {
		return nil, newIOError(op, err)
	}

	w, err := NewWriter(f, channels, sampleRate, bitsPerSample, opts...)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w.file = f

	return w, nil
}
