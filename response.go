package tekscope

import "github.com/pkg/errors"

// ReadResponse reads bytes from t until a poll times out and returns them.
//
// It waits indefinitely for the first byte. After that a single quiet read
// timeout ends the response, so the caller must know where frames begin and
// a device that keeps streaming is never cut off. max > 0 caps the length and
// fails with ErrResponseTooLong instead of growing without bound.
func ReadResponse(t Transport, max int) ([]byte, error) {
	var data []byte
	for len(data) == 0 {
		b, ok, err := t.PollByte()
		if err != nil {
			return nil, errors.Wrap(err, "read response")
		}
		if ok {
			data = append(data, b)
		}
	}
	for {
		if max > 0 && len(data) > max {
			return nil, errors.Wrapf(ErrResponseTooLong, "more than %d bytes", max)
		}
		b, ok, err := t.PollByte()
		if err != nil {
			return nil, errors.Wrap(err, "read response")
		}
		if !ok {
			return data, nil
		}
		data = append(data, b)
	}
}
