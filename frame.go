package tekscope

import (
	"bytes"
	"encoding/binary"
	"strconv"

	"github.com/pkg/errors"
)

// SampleWidth is the number of bytes per transferred point.
type SampleWidth int

// Sample widths accepted by DATA:WIDTH.
const (
	SingleByte SampleWidth = 1
	DoubleByte SampleWidth = 2
)

// Valid reports whether w is 1 or 2.
func (w SampleWidth) Valid() bool {
	return w == SingleByte || w == DoubleByte
}

// Max is the largest sample value at width w.
func (w SampleWidth) Max() uint16 {
	if w == DoubleByte {
		return 0xffff
	}
	return 0xff
}

// CurveFrame is one decoded CURVE? response.
type CurveFrame struct {
	// Preamble is whatever precedes the samples, normally an IEEE 488.2
	// block header such as "#42000".
	Preamble []byte
	Samples  []uint16
}

// DecodeFrame splits raw into preamble and samples.
//
// One trailing line feed is dropped if present. The preamble length is
// whatever is left once width*pointCount sample bytes are taken from the end.
// Two-byte samples are always big-endian: acquisition configures the
// transfer encoding, so the preamble's byte-order field is not consulted.
func DecodeFrame(raw []byte, pointCount int, width SampleWidth) (*CurveFrame, error) {
	if !width.Valid() {
		return nil, errors.Wrapf(ErrInvalidConfig, "sample width %d", width)
	}
	if pointCount < 0 {
		return nil, errors.Wrapf(ErrFrameIntegrity, "negative point count %d", pointCount)
	}
	if n := len(raw); n > 0 && raw[n-1] == '\n' {
		raw = raw[:n-1]
	}

	dataLen := int(width) * pointCount
	preambleLen := len(raw) - dataLen
	if preambleLen < 0 {
		return nil, errors.Wrapf(ErrFrameIntegrity,
			"frame has %d bytes, %d points of width %d need %d", len(raw), pointCount, width, dataLen)
	}
	preamble := raw[:preambleLen]
	if err := checkBlockHeader(preamble, dataLen); err != nil {
		return nil, err
	}

	body := raw[preambleLen:]
	samples := make([]uint16, 0, pointCount)
	if width == DoubleByte {
		for i := 0; i+1 < len(body); i += 2 {
			samples = append(samples, binary.BigEndian.Uint16(body[i:]))
		}
	} else {
		for _, b := range body {
			samples = append(samples, uint16(b))
		}
	}
	if len(samples) != pointCount {
		return nil, errors.Wrapf(ErrFrameIntegrity, "decoded %d samples, expected %d", len(samples), pointCount)
	}
	return &CurveFrame{Preamble: bytes.Clone(preamble), Samples: samples}, nil
}

// checkBlockHeader validates a preamble that looks like "#<n><n digits>".
// Other preambles are opaque and pass.
func checkBlockHeader(preamble []byte, dataLen int) error {
	if len(preamble) == 0 || preamble[0] != '#' {
		return nil
	}
	if len(preamble) < 2 || preamble[1] < '0' || preamble[1] > '9' {
		return errors.Wrapf(ErrFrameIntegrity, "malformed block header %q", preamble)
	}
	digits := int(preamble[1] - '0')
	if len(preamble) != 2+digits {
		return errors.Wrapf(ErrFrameIntegrity, "block header %q does not end where the samples begin", preamble)
	}
	if digits == 0 {
		// indefinite-length block
		return nil
	}
	declared, err := strconv.Atoi(string(preamble[2:]))
	if err != nil {
		return errors.Wrapf(ErrFrameIntegrity, "malformed block header %q", preamble)
	}
	if declared != dataLen {
		return errors.Wrapf(ErrFrameIntegrity, "block header declares %d bytes, expected %d", declared, dataLen)
	}
	return nil
}

// BlockHeader returns the IEEE 488.2 definite-length header for n bytes.
func BlockHeader(n int) []byte {
	digits := strconv.Itoa(n)
	return []byte("#" + strconv.Itoa(len(digits)) + digits)
}

// EncodeFrame is the inverse of DecodeFrame: preamble followed by the samples
// at the given width, big-endian. Values wider than width are truncated.
func EncodeFrame(preamble []byte, samples []uint16, width SampleWidth) []byte {
	out := make([]byte, 0, len(preamble)+int(width)*len(samples))
	out = append(out, preamble...)
	for _, s := range samples {
		if width == DoubleByte {
			out = binary.BigEndian.AppendUint16(out, s)
		} else {
			out = append(out, byte(s))
		}
	}
	return out
}
