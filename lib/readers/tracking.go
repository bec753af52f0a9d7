package readers

import "io"

// TrackingReader remembers the first error other than io.EOF that in
// returned. After an io.Copy fails it tells a read side failure from
// a write side one.
type TrackingReader struct {
	in  io.Reader
	err error
}

// NewTrackingReader wraps in
func NewTrackingReader(in io.Reader) *TrackingReader {
	return &TrackingReader{in: in}
}

// Read passes through to the underlying reader
func (t *TrackingReader) Read(p []byte) (n int, err error) {
	n, err = t.in.Read(p)
	if err != nil && err != io.EOF && t.err == nil {
		t.err = err
	}
	return n, err
}

// Err returns the first read error seen, if any
func (t *TrackingReader) Err() error {
	return t.err
}
