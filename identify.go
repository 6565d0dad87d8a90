package tekscope

import (
	"regexp"

	"github.com/pkg/errors"
)

var tds3000ID = regexp.MustCompile(`^TEKTRONIX,TDS 3\d{3},`)

// Identify returns the *IDN? reply, e.g.
// "TEKTRONIX,TDS 3034,0,CF:91.1CT FV:v2.11 TDS3GM:v1.00 TDS3FFT:v1.00 TDS3TRG:v1.00".
func (s *Scope) Identify() (string, error) {
	return s.ch.SendQuery("*IDN")
}

// SanityCheck reports whether the device identifies itself as a TDS3000-series scope.
func (s *Scope) SanityCheck() (bool, error) {
	id, err := s.Identify()
	if err != nil {
		return false, err
	}
	return tds3000ID.MatchString(id), nil
}

// ForceSanity is SanityCheck that fails with ErrUnexpectedDevice on a mismatch.
func (s *Scope) ForceSanity() error {
	id, err := s.Identify()
	if err != nil {
		return err
	}
	if !tds3000ID.MatchString(id) {
		return errors.Wrapf(ErrUnexpectedDevice, "identify returned %q", id)
	}
	return nil
}

// PointCount is the number of points the next curve transfer will send under
// the current DATA settings.
func (s *Scope) PointCount() (int, error) {
	return s.ch.QueryInt("WFMPRE:NR_PT")
}
