// Package serial provides the byte-level link to an instrument attached to a
// serial port.
//
// Two primitives matter to instrument drivers: ReadLine, for short
// delimiter-terminated replies, and PollByte, which returns one byte or
// reports that Config.ReadTimeout passed without any. A quiet line is how a
// binary transfer of unknown length ends, so the timeout is part of the
// protocol rather than an error.
//
// Features:
//   - Raw syscall-based serial I/O on Linux, no buffering delays (Port)
//   - A portable fallback on go.bug.st/serial (Portable)
//   - Read-ahead is kept between calls, so no response bytes are dropped
//   - Self-pipe mechanism for killability: Close unblocks a pending read
//   - PTY-based tests for reliability
//
// Example usage:
//
//	port, err := serial.Connect(serial.Config{
//	    Device:      "/dev/ttyUSB0",
//	    BaudRate:    9600,
//	    Delimiter:   "\n",
//	    ReadTimeout: 2 * time.Second,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	if _, err := port.Write([]byte("*IDN?\r")); err != nil {
//	    log.Fatal(err)
//	}
//	id, err := port.ReadLine()
package serial
