package tekscope

import (
	"io"

	"github.com/pkg/errors"
)

// ScreenshotOptions selects the hardcopy format and layout.
type ScreenshotOptions struct {
	// Format is one of the device's HARDCOPY:FORMAT values, e.g. TIFF, BMP,
	// BMPColor, EPSColor, EPSMono, PCX, RLE or PNG. Empty means TIFF.
	Format    string
	InkSaver  bool
	Landscape bool
}

// DefaultScreenshotOptions is a portrait TIFF with ink saver on.
func DefaultScreenshotOptions() ScreenshotOptions {
	return ScreenshotOptions{Format: "TIFF", InkSaver: true}
}

// Screenshot grabs a hardcopy of the display over the serial port.
func (s *Scope) Screenshot(opts ScreenshotOptions) ([]byte, error) {
	format := opts.Format
	if format == "" {
		format = "TIFF"
	}
	layout := "portrait"
	if opts.Landscape {
		layout = "landscape"
	}
	inksaver := "off"
	if opts.InkSaver {
		inksaver = "on"
	}

	steps := [][]string{
		{"HARDCOPY:FORMAT", format},
		{"HARDCOPY:LAYOUT", layout},
		{"HARDCOPY:INKSAVER", inksaver},
		{"HARDCOPY:PORT", "RS232"},
		{"HARDCOPY", "START"},
	}
	for _, st := range steps {
		if err := s.ch.SendCommand(st[0], st[1:]...); err != nil {
			return nil, err
		}
	}
	data, err := s.ch.ReadResponse()
	if err != nil {
		return nil, errors.Wrap(err, "screenshot")
	}
	s.log.WithField("format", format).WithField("bytes", len(data)).Info("screenshot captured")
	return data, nil
}

// WriteScreenshot writes a screenshot to w.
func (s *Scope) WriteScreenshot(w io.Writer, opts ScreenshotOptions) error {
	data, err := s.Screenshot(opts)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
