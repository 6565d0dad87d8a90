package tekscope

// Transport is the byte-oriented duplex link to the scope.
//
// PollByte returns ok=false when no byte arrived within the transport's read
// timeout; that is not an error. ReadLine returns one line without its
// terminator. Timeout policy belongs to the Transport.
type Transport interface {
	Write(p []byte) (int, error)
	ReadLine() (string, error)
	PollByte() (b byte, ok bool, err error)
	Close() error
}
