// Package readers holds the io.Reader wrappers used by transfers
package readers

import (
	"io"
	"sync"

	"github.com/pkg/errors"
)

// RepeatableReader buffers what it reads from in so that it can be
// rewound. Upload chunks use it so a chunk can be sent again from
// the start of the buffer without touching the source.
type RepeatableReader struct {
	mu sync.Mutex
	in io.Reader
	i  int64  // read position
	b  []byte // everything read from in so far
}

var _ io.ReadSeeker = (*RepeatableReader)(nil)

// Seek implements io.Seeker within the data read so far
func (r *RepeatableReader) Seek(offset int64, whence int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var abs int64
	cacheLen := int64(len(r.b))
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = r.i + offset
	case io.SeekEnd:
		abs = cacheLen + offset
	default:
		return 0, errors.New("readers.RepeatableReader.Seek: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("readers.RepeatableReader.Seek: negative position")
	}
	if abs > cacheLen {
		return offset - (abs - cacheLen), errors.New("readers.RepeatableReader.Seek: offset is unavailable")
	}
	r.i = abs
	return abs, nil
}

// Read serves from the buffer if rewound, otherwise from in
func (r *RepeatableReader) Read(b []byte) (n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.i == int64(len(r.b)) {
		n, err = r.in.Read(b)
		if n > 0 {
			r.b = append(r.b, b[:n]...)
		}
	} else {
		n = copy(b, r.b[r.i:])
	}
	r.i += int64(n)
	return n, err
}

// NewRepeatableReader makes a RepeatableReader reading from r
func NewRepeatableReader(r io.Reader) *RepeatableReader {
	return &RepeatableReader{in: r}
}

// NewRepeatableLimitReaderBuffer makes a RepeatableReader which reads
// at most size bytes from r, storing them in buf.
func NewRepeatableLimitReaderBuffer(r io.Reader, buf []byte, size int64) *RepeatableReader {
	return &RepeatableReader{
		in: io.LimitReader(r, size),
		b:  buf[:0],
	}
}
