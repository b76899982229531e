package frame

import (
	"bytes"
	"errors"
	"iter"
)

const Delimiter byte = '\n'

var ErrFrameTooLarge = errors.New("frame: frame exceeds size limit")

// Limits constrains reader memory use.
type Limits struct {
	MaxFrameBytes int
}

func DefaultLimits() Limits {
	return Limits{
		MaxFrameBytes: 1024 * 1024,
	}
}

// Reader splits a byte stream into newline-delimited frames. State lives in the
// Reader, so a partial frame left over from one Feed is completed by the next.
// A Reader is owned by one goroutine.
type Reader struct {
	limits     Limits
	buf        []byte
	discarding bool
}

func NewReader(limits Limits) *Reader {
	if limits.MaxFrameBytes <= 0 {
		limits = DefaultLimits()
	}
	return &Reader{limits: limits}
}

// Feed appends chunk to the pending buffer and returns a lazy sequence of the
// complete frames now available. Frames are yielded without the delimiter or a
// trailing carriage return; blank lines are skipped. If iteration stops early,
// the unconsumed frames are yielded by the next Feed. An oversized partial frame
// yields ErrFrameTooLarge once and is dropped through its closing delimiter.
func (r *Reader) Feed(chunk []byte) iter.Seq2[[]byte, error] {
	r.buf = append(r.buf, chunk...)
	return r.frames
}

// Buffered reports the number of bytes held for an incomplete frame.
func (r *Reader) Buffered() int {
	return len(r.buf)
}

// Reset drops any partial frame.
func (r *Reader) Reset() {
	r.buf = r.buf[:0]
	r.discarding = false
}

func (r *Reader) frames(yield func([]byte, error) bool) {
	for {
		idx := bytes.IndexByte(r.buf, Delimiter)
		if idx < 0 {
			if tailLen(r.buf) > r.limits.MaxFrameBytes {
				r.buf = r.buf[:0]
				if !r.discarding {
					r.discarding = true
					yield(nil, ErrFrameTooLarge)
				}
			}
			return
		}

		line := r.buf[:idx]
		r.buf = r.buf[idx+1:]
		if r.discarding {
			r.discarding = false
			continue
		}
		line = bytes.TrimSuffix(line, []byte{'\r'})
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		if len(line) > r.limits.MaxFrameBytes {
			if !yield(nil, ErrFrameTooLarge) {
				return
			}
			continue
		}
		out := make([]byte, len(line))
		copy(out, line)
		if !yield(out, nil) {
			return
		}
	}
}

// tailLen is the length a partial frame will have once its delimiter arrives;
// a trailing '\r' may still belong to a "\r\n" pair.
func tailLen(buf []byte) int {
	n := len(buf)
	if n > 0 && buf[n-1] == '\r' {
		n--
	}
	return n
}
