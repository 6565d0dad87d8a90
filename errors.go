package tekscope

import (
	"errors"
	"fmt"
)

var (
	// ErrProtocolFormat means a reply did not have the textual shape the query expects.
	ErrProtocolFormat = errors.New("protocol format error")
	// ErrFrameIntegrity means a curve frame does not agree with the point count queried
	// before the transfer. Nothing from that acquisition can be trusted.
	ErrFrameIntegrity = errors.New("frame integrity error")
	// ErrResponseTooLong is returned when a response exceeds Options.MaxResponse.
	ErrResponseTooLong = errors.New("response exceeds maximum length")
	// ErrUnexpectedDevice is returned by ForceSanity when *IDN does not look like a TDS3000.
	ErrUnexpectedDevice = errors.New("unexpected device identification")
	// ErrUnknownSetting is returned by Get and Set for names missing from the settings table.
	ErrUnknownSetting = errors.New("unknown setting")
	// ErrInvalidConfig is returned by NewAcquisitionConfig.
	ErrInvalidConfig = errors.New("invalid acquisition config")
)

// AcquisitionError reports the state an acquisition was in when it failed.
type AcquisitionError struct {
	State State
	Err   error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("acquisition failed while %s: %v", e.State, e.Err)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }
