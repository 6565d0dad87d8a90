package serial

import (
	"bytes"
	"errors"
)

var (
	// ErrClosed is returned by reads interrupted or attempted after Close.
	ErrClosed = errors.New("serial port closed")
	// ErrTimeout is returned by ReadLine when the delimiter does not arrive in time.
	ErrTimeout = errors.New("serial read timed out")
	// ErrUnsupportedBaud is returned by Open for baud rates the port cannot be set to.
	ErrUnsupportedBaud = errors.New("unsupported baud rate")
)

// lineBuffer holds bytes read ahead of the caller so that a line read never
// swallows the start of the next response.
type lineBuffer struct {
	pending []byte
	delim   []byte
}

// next pops one byte, calling fill once if nothing is buffered.
func (b *lineBuffer) next(fill func() ([]byte, error)) (byte, bool, error) {
	if len(b.pending) == 0 {
		chunk, err := fill()
		if err != nil {
			return 0, false, err
		}
		if len(chunk) == 0 {
			return 0, false, nil
		}
		b.pending = append(b.pending, chunk...)
	}
	c := b.pending[0]
	b.pending = b.pending[1:]
	return c, true, nil
}

// line returns everything before the next delimiter, calling fill until one shows up.
func (b *lineBuffer) line(fill func() ([]byte, error)) (string, error) {
	for {
		if idx := bytes.Index(b.pending, b.delim); idx >= 0 {
			line := string(b.pending[:idx])
			b.pending = b.pending[idx+len(b.delim):]
			return line, nil
		}
		chunk, err := fill()
		if err != nil {
			return "", err
		}
		if len(chunk) == 0 {
			return "", ErrTimeout
		}
		b.pending = append(b.pending, chunk...)
	}
}
