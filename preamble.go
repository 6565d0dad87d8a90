package tekscope

import (
	"strings"

	"github.com/pkg/errors"
)

const preambleFieldCount = 16

// WaveformPreamble is the WFMPRE? record, one string per field in the order
// the scope sends them. Values are kept verbatim.
type WaveformPreamble struct {
	BytesPerSample string `json:"bytes_per_sample"`
	BitsPerSample  string `json:"bits_per_sample"`
	Encoding       string `json:"encoding"`
	BinaryFormat   string `json:"binary_format"`
	ByteOrder      string `json:"byte_order"`
	NumberOfPoints string `json:"number_of_points"`
	WaveformID     string `json:"waveform_id"`
	PointFormat    string `json:"point_format"`
	XIncrement     string `json:"x_incr"`
	PointOffset    string `json:"pt_offset"`
	XZero          string `json:"xzero"`
	XUnits         string `json:"x_units"`
	YScale         string `json:"y_scale"`
	YZero          string `json:"y_zero"`
	YOffset        string `json:"y_offset"`
	YUnits         string `json:"y_unit"`
}

// ParsePreamble splits a WFMPRE? reply on ';'. Exactly 16 fields are required.
func ParsePreamble(record string) (*WaveformPreamble, error) {
	f := strings.Split(record, ";")
	if len(f) != preambleFieldCount {
		return nil, errors.Wrapf(ErrProtocolFormat,
			"waveform preamble has %d fields, expected %d", len(f), preambleFieldCount)
	}
	return &WaveformPreamble{
		BytesPerSample: f[0],
		BitsPerSample:  f[1],
		Encoding:       f[2],
		BinaryFormat:   f[3],
		ByteOrder:      f[4],
		NumberOfPoints: f[5],
		WaveformID:     f[6],
		PointFormat:    f[7],
		XIncrement:     f[8],
		PointOffset:    f[9],
		XZero:          f[10],
		XUnits:         f[11],
		YScale:         f[12],
		YZero:          f[13],
		YOffset:        f[14],
		YUnits:         f[15],
	}, nil
}

// ReadPreamble queries WFMPRE, which describes how the next curve will be
// transferred and how to scale it.
func (c *Channel) ReadPreamble() (*WaveformPreamble, error) {
	record, err := c.SendQuery("WFMPRE")
	if err != nil {
		return nil, err
	}
	return ParsePreamble(record)
}

// XUnits returns the X axis unit for the current waveform settings.
func (c *Channel) XUnits() (string, error) {
	return c.QueryQuotedString("WFMPRE:XUNIT")
}

// YUnits returns the Y axis unit for the current waveform settings.
func (c *Channel) YUnits() (string, error) {
	return c.QueryQuotedString("WFMPRE:YUNIT")
}
