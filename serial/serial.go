package serial

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
)

// Port provides low-latency, killable access to a Linux serial port.
// Reads and writes must come from a single goroutine; Close may be called from any goroutine.
type Port struct {
	fd        int
	file      *os.File
	done      chan struct{}
	closeOnce sync.Once
	config    Config
	pipeR     int // self-pipe read fd
	pipeW     int // self-pipe write fd
	buf       []byte
	lines     lineBuffer
}

// Config holds configuration parameters for opening a serial port.
type Config struct {
	Device      string
	BaudRate    int
	Delimiter   string        // default "\n"
	ReadTimeout time.Duration // <= 0 blocks forever
	Driver      string        // DriverNative (default) or DriverPortable
}

func (c Config) delimiter() string {
	if c.Delimiter == "" {
		return "\n"
	}
	return c.Delimiter
}

// Open opens a serial port using the provided Config and returns a Port.
// The port is configured for raw, low-latency, non-buffered operation.
func Open(cfg Config) (*Port, error) {
	baud, err := baudToUnix(cfg.BaudRate)
	if err != nil {
		return nil, err
	}

	fd, err := syscall.Open(cfg.Device, syscall.O_RDWR|syscall.O_NOCTTY|syscall.O_NONBLOCK, 0666)
	if err != nil {
		return nil, fmt.Errorf("open failed: %w", err)
	}

	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("get termios: %w", err)
	}

	// Raw mode
	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	termios.Oflag &^= unix.OPOST
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	termios.Cflag &^= unix.CSIZE | unix.PARENB
	termios.Cflag |= unix.CS8

	termios.Cflag &^= unix.CBAUD
	termios.Cflag |= baud

	// Set VMIN=1, VTIME=0; timeouts are handled by poll.
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("set termios: %w", err)
	}

	// Turn back into blocking mode now that config is done
	if err := syscall.SetNonblock(fd, false); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("set blocking: %w", err)
	}

	// Create self-pipe for killability
	pipeFds := make([]int, 2)
	if err := unix.Pipe(pipeFds); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("pipe: %w", err)
	}

	file := os.NewFile(uintptr(fd), cfg.Device)
	return &Port{
		fd:     fd,
		file:   file,
		done:   make(chan struct{}),
		config: cfg,
		pipeR:  pipeFds[0],
		pipeW:  pipeFds[1],
		buf:    make([]byte, 4096),
		lines:  lineBuffer{delim: []byte(cfg.delimiter())},
	}, nil
}

// Write writes raw bytes to the serial port.
func (s *Port) Write(p []byte) (int, error) {
	return s.file.Write(p)
}

// WriteLine writes a line (with specified newline) to the serial port.
func (s *Port) WriteLine(line string, newline string) error {
	_, err := s.file.WriteString(line + newline)
	return err
}

// PollByte returns the next byte from the port. It waits at most Config.ReadTimeout;
// ok is false if nothing arrived in that window.
func (s *Port) PollByte() (byte, bool, error) {
	return s.lines.next(s.fill)
}

// ReadLine reads a single line from the serial port, blocking until a full line is received,
// the read timeout elapses without new data (ErrTimeout), or an error occurs.
// Bytes after the delimiter stay buffered for the next read.
func (s *Port) ReadLine() (string, error) {
	return s.lines.line(s.fill)
}

// fill waits up to the read timeout for data and returns what one read produced.
// A nil chunk with a nil error means the wait timed out.
func (s *Port) fill() ([]byte, error) {
	timeout := -1
	if s.config.ReadTimeout > 0 {
		timeout = int(s.config.ReadTimeout / time.Millisecond)
		if timeout == 0 {
			timeout = 1
		}
	}
	for {
		// Use poll to wait for data or kill signal
		pfd := []unix.PollFd{
			{Fd: int32(s.fd), Events: unix.POLLIN},
			{Fd: int32(s.pipeR), Events: unix.POLLIN},
		}
		n, err := unix.Poll(pfd, timeout)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, err
		}
		// Check killability
		select {
		case <-s.done:
			return nil, ErrClosed
		default:
		}
		if pfd[1].Revents&unix.POLLIN != 0 {
			// Drain pipe
			var b [1]byte
			unix.Read(s.pipeR, b[:])
			return nil, ErrClosed
		}
		if n == 0 {
			return nil, nil
		}
		if pfd[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR|unix.POLLNVAL) != 0 {
			r, err := s.file.Read(s.buf)
			if err != nil {
				return nil, err
			}
			return s.buf[:r], nil
		}
	}
}

// Close closes the serial port and unblocks any pending read.
// Safe to call multiple times; subsequent calls are no-ops.
func (s *Port) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		// Wake up poll using self-pipe
		if s.pipeW > 0 {
			unix.Write(s.pipeW, []byte{1})
		}
		if s.file != nil {
			err = multierr.Append(err, s.file.Close())
		}
		if s.pipeR > 0 {
			err = multierr.Append(err, unix.Close(s.pipeR))
		}
		if s.pipeW > 0 {
			err = multierr.Append(err, unix.Close(s.pipeW))
		}
	})
	return err
}

func baudToUnix(baud int) (uint32, error) {
	switch baud {
	case 1200:
		return unix.B1200, nil
	case 2400:
		return unix.B2400, nil
	case 4800:
		return unix.B4800, nil
	case 9600:
		return unix.B9600, nil
	case 19200:
		return unix.B19200, nil
	case 38400:
		return unix.B38400, nil
	case 57600:
		return unix.B57600, nil
	case 115200:
		return unix.B115200, nil
	case 230400:
		return unix.B230400, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedBaud, baud)
	}
}
