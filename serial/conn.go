package serial

import (
	"fmt"
	"io"
)

// Driver names accepted in Config.Driver.
const (
	DriverNative   = "native"
	DriverPortable = "portable"
)

// Conn is the set of primitives shared by Port and Portable.
type Conn interface {
	io.Writer
	ReadLine() (string, error)
	PollByte() (byte, bool, error)
	Close() error
}

// Connect opens the port with the driver named in cfg.
func Connect(cfg Config) (Conn, error) {
	switch cfg.Driver {
	case "", DriverNative:
		return Open(cfg)
	case DriverPortable:
		return OpenPortable(cfg)
	default:
		return nil, fmt.Errorf("unknown serial driver %q", cfg.Driver)
	}
}
