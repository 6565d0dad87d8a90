package serial

import (
	"fmt"

	bugst "go.bug.st/serial"
)

// Portable is a Conn backed by go.bug.st/serial, for hosts where the raw
// termios path of Port is not available.
type Portable struct {
	port   bugst.Port
	config Config
	buf    []byte
	lines  lineBuffer
}

// OpenPortable opens cfg.Device as 8N1 at cfg.BaudRate with cfg.ReadTimeout as the per-read timeout.
func OpenPortable(cfg Config) (*Portable, error) {
	if _, err := baudToUnix(cfg.BaudRate); err != nil {
		return nil, err
	}
	mode := &bugst.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	}
	port, err := bugst.Open(cfg.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("open failed: %w", err)
	}
	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = bugst.NoTimeout
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	return &Portable{
		port:   port,
		config: cfg,
		buf:    make([]byte, 4096),
		lines:  lineBuffer{delim: []byte(cfg.delimiter())},
	}, nil
}

// Write writes raw bytes to the serial port.
func (p *Portable) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// PollByte returns the next byte, or ok=false once the read timeout passes with no data.
func (p *Portable) PollByte() (byte, bool, error) {
	return p.lines.next(p.fill)
}

// ReadLine reads one delimiter-terminated line, failing with ErrTimeout if it stalls.
func (p *Portable) ReadLine() (string, error) {
	return p.lines.line(p.fill)
}

func (p *Portable) fill() ([]byte, error) {
	n, err := p.port.Read(p.buf)
	if err != nil {
		return nil, err
	}
	return p.buf[:n], nil
}

// Close closes the underlying port.
func (p *Portable) Close() error {
	return p.port.Close()
}
