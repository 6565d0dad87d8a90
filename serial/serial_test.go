package serial

import (
	"os"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"
)

func openPair(t *testing.T, timeout time.Duration) (*os.File, *Port) {
	t.Helper()
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	cfg := Config{
		Device:      slave.Name(),
		BaudRate:    9600,
		Delimiter:   "\n",
		ReadTimeout: timeout,
	}
	port, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { port.Close() })
	return master, port
}

func TestPort_ChatMasterSlave(t *testing.T) {
	master, port := openPair(t, 0)

	fromMaster := make(chan string, 1)
	fromSlave := make(chan string, 1)
	errors := make(chan error, 2)

	// Port reads from slave (master writes)
	go func() {
		line, err := port.ReadLine()
		if err != nil {
			errors <- err
			return
		}
		fromMaster <- line
	}()

	// Master reads from master (Port writes)
	go func() {
		buf := make([]byte, 128)
		n, err := master.Read(buf)
		if err != nil {
			errors <- err
			return
		}
		fromSlave <- string(buf[:n])
	}()

	// 1. Master writes to slave, Port should receive
	_, err := master.Write([]byte("ping\n"))
	require.NoError(t, err)

	select {
	case msg := <-fromMaster:
		require.Equal(t, "ping", msg)
	case err := <-errors:
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for slave to receive from master")
	}

	// 2. Port writes to master, master should receive
	err = port.WriteLine("pong", "\n")
	require.NoError(t, err)

	select {
	case msg := <-fromSlave:
		require.Equal(t, "pong\n", msg)
	case err := <-errors:
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for master to receive from slave")
	}
}

func TestPort_ReadLineKeepsRemainder(t *testing.T) {
	master, port := openPair(t, 200*time.Millisecond)

	_, err := master.Write([]byte("one\ntwo\nthr"))
	require.NoError(t, err)

	line, err := port.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "one", line)

	line, err = port.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "two", line)

	// The partial third line is still buffered for byte reads.
	for _, want := range []byte("thr") {
		b, ok, err := port.PollByte()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, want, b)
	}
}

func TestPort_ReadLineTimeout(t *testing.T) {
	master, port := openPair(t, 50*time.Millisecond)

	_, err := master.Write([]byte("no terminator"))
	require.NoError(t, err)

	_, err = port.ReadLine()
	require.ErrorIs(t, err, ErrTimeout)
}

func TestPort_PollByte(t *testing.T) {
	master, port := openPair(t, 50*time.Millisecond)

	_, err := master.Write([]byte{'a', 0x00, 0xff})
	require.NoError(t, err)

	var got []byte
	for {
		b, ok, err := port.PollByte()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, b)
	}
	require.Equal(t, []byte{'a', 0x00, 0xff}, got)
}

func TestPort_WriteLine(t *testing.T) {
	master, port := openPair(t, 0)

	// Write a line using WriteLine
	line := "*IDN?"
	newline := "\r"
	err := port.WriteLine(line, newline)
	require.NoError(t, err)

	// Read from master and check output
	buf := make([]byte, len(line)+len(newline))
	n, err := master.Read(buf)
	require.NoError(t, err)
	require.Equal(t, len(line)+len(newline), n)
	require.Equal(t, line+newline, string(buf))
}

func TestPort_Killability(t *testing.T) {
	_, port := openPair(t, 0)

	done := make(chan error, 1)
	go func() {
		_, _, err := port.PollByte()
		done <- err
	}()

	// Give the goroutine a chance to block
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, port.Close())

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrClosed)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout waiting for PollByte to return after Close")
	}

	// Should be a no-op due to closeOnce
	require.NoError(t, port.Close())
}

func TestPort_ErrorPropagation(t *testing.T) {
	master, port := openPair(t, 0)

	errors := make(chan error, 1)
	go func() {
		_, err := port.ReadLine()
		errors <- err
	}()

	// Simulate device disconnect by closing master
	require.NoError(t, master.Close())

	select {
	case err := <-errors:
		require.Error(t, err)
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for error after device disconnect")
	}
}

func TestOpen_UnsupportedBaud(t *testing.T) {
	_, err := Open(Config{Device: "/dev/null", BaudRate: 12345})
	require.ErrorIs(t, err, ErrUnsupportedBaud)
}

func TestConnect_UnknownDriver(t *testing.T) {
	_, err := Connect(Config{Device: "/dev/null", BaudRate: 9600, Driver: "usbtmc"})
	require.Error(t, err)
}

func TestConnect_Portable(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	conn, err := Connect(Config{
		Device:      slave.Name(),
		BaudRate:    9600,
		Delimiter:   "\n",
		ReadTimeout: 100 * time.Millisecond,
		Driver:      DriverPortable,
	})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.IsType(t, &Portable{}, conn)

	_, err = master.Write([]byte("TEKTRONIX\nX"))
	require.NoError(t, err)

	line, err := conn.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "TEKTRONIX", line)

	b, ok, err := conn.PollByte()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, byte('X'), b)

	_, ok, err = conn.PollByte()
	require.NoError(t, err)
	require.False(t, ok)
}
