package tekscope

import (
	"errors"
	"strings"
	"time"
)

var (
	errBrokenLink = errors.New("broken link")
	errNoReply    = errors.New("fake: no scripted reply")
)

// fakeTransport replays scripted line replies and a byte stream, and records
// everything written to it.
type fakeTransport struct {
	written []string
	replies []string
	stream  []byte
	// idle is the number of empty polls before the stream starts.
	idle     int
	empty    int
	writeErr error
	closed   bool
}

func (f *fakeTransport) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.written = append(f.written, string(p))
	return len(p), nil
}

func (f *fakeTransport) ReadLine() (string, error) {
	if len(f.replies) == 0 {
		return "", errNoReply
	}
	line := f.replies[0]
	f.replies = f.replies[1:]
	return line, nil
}

func (f *fakeTransport) PollByte() (byte, bool, error) {
	if f.idle > 0 {
		f.idle--
		return 0, false, nil
	}
	if len(f.stream) == 0 {
		// Give up eventually so a test waiting on a first byte cannot hang.
		f.empty++
		if f.empty > 100 {
			return 0, false, errNoReply
		}
		return 0, false, nil
	}
	f.empty = 0
	b := f.stream[0]
	f.stream = f.stream[1:]
	return b, true, nil
}

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

func (f *fakeTransport) commands() string {
	return strings.Join(f.written, "")
}

type recordingObserver struct {
	completed []time.Duration
	failed    []State
	bytes     int
}

func (r *recordingObserver) AcquisitionCompleted(_ string, _ SampleWidth, n int, elapsed time.Duration) {
	r.completed = append(r.completed, elapsed)
	r.bytes += n
}

func (r *recordingObserver) AcquisitionFailed(st State, _ error) {
	r.failed = append(r.failed, st)
}
