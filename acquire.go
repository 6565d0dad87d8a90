package tekscope

import (
	"iter"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// MaxPoints is the record length of a TDS3000 acquisition.
const MaxPoints = 10000

// AcquisitionConfig selects what a curve transfer sends. Build it with
// NewAcquisitionConfig; it cannot be changed afterwards.
type AcquisitionConfig struct {
	source string
	width  SampleWidth
	start  int
	stop   int
}

// NewAcquisitionConfig validates and returns a config. An empty source means
// CH1, start 0 means 1 and stop 0 means MaxPoints. Points are numbered from 1.
func NewAcquisitionConfig(source string, width SampleWidth, start, stop int) (AcquisitionConfig, error) {
	if source == "" {
		source = "CH1"
	}
	if start == 0 {
		start = 1
	}
	if stop == 0 {
		stop = MaxPoints
	}
	switch {
	case !width.Valid():
		return AcquisitionConfig{}, errors.Wrapf(ErrInvalidConfig, "sample width %d", width)
	case start < 1:
		return AcquisitionConfig{}, errors.Wrapf(ErrInvalidConfig, "start %d is before the first point", start)
	case stop < start:
		return AcquisitionConfig{}, errors.Wrapf(ErrInvalidConfig, "stop %d is before start %d", stop, start)
	case stop > MaxPoints:
		return AcquisitionConfig{}, errors.Wrapf(ErrInvalidConfig, "stop %d is past %d", stop, MaxPoints)
	}
	return AcquisitionConfig{source: source, width: width, start: start, stop: stop}, nil
}

func (c AcquisitionConfig) Source() string     { return c.source }
func (c AcquisitionConfig) Width() SampleWidth { return c.width }
func (c AcquisitionConfig) Start() int         { return c.start }
func (c AcquisitionConfig) Stop() int          { return c.stop }

// State is a step of an acquisition.
type State int

const (
	StateIdle State = iota
	StateConfiguring
	StateCountQueried
	StateTriggered
	StateFrameReceived
	StateDecoded
	StateScaled
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConfiguring:
		return "configuring"
	case StateCountQueried:
		return "querying point count"
	case StateTriggered:
		return "transferring curve"
	case StateFrameReceived:
		return "frame received"
	case StateDecoded:
		return "decoding"
	case StateScaled:
		return "scaling"
	case StateDone:
		return "done"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// Observer is told how each acquisition ended.
type Observer interface {
	AcquisitionCompleted(source string, width SampleWidth, frameBytes int, elapsed time.Duration)
	AcquisitionFailed(state State, err error)
}

type nopObserver struct{}

func (nopObserver) AcquisitionCompleted(string, SampleWidth, int, time.Duration) {}
func (nopObserver) AcquisitionFailed(State, error)                               {}

// Options configures a Scope. The zero value is usable.
type Options struct {
	Logger   logrus.FieldLogger
	Observer Observer
	// MaxResponse bounds curve and screenshot responses in bytes; 0 is unbounded.
	MaxResponse int
}

// Scope is a TDS3000-series oscilloscope on a Transport.
// It is not safe for concurrent use: the scope handles one request at a time.
type Scope struct {
	t   Transport
	ch  *Channel
	log logrus.FieldLogger
	obs Observer
}

// NewScope returns a Scope that owns t.
func NewScope(t Transport, opts Options) *Scope {
	log := opts.Logger
	if log == nil {
		log = discardLogger()
	}
	obs := opts.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	return &Scope{
		t:   t,
		ch:  NewChannel(t, log, opts.MaxResponse),
		log: log,
		obs: obs,
	}
}

// Channel exposes the command channel for raw commands and queries.
func (s *Scope) Channel() *Channel { return s.ch }

// Close closes the transport.
func (s *Scope) Close() error { return s.t.Close() }

// Curve is the raw result of a curve transfer.
type Curve struct {
	Frame      *CurveFrame
	PointCount int
	Width      SampleWidth
	// FrameBytes is the size of the response as received.
	FrameBytes int
	// Elapsed runs from just before CURVE? to the end of the response.
	Elapsed time.Duration
}

// Waveform is a Curve with its scaling applied.
type Waveform struct {
	Curve
	Preamble *WaveformPreamble
	Points   iter.Seq[Point]
}

// Curve configures the transfer, triggers it and decodes the frame.
// Samples are unscaled: 0-255 for SingleByte, 0-65535 for DoubleByte, with
// the extremes one division beyond the top and bottom of the screen.
//
// The DATA and WFMPRE settings it sends persist on the scope.
func (s *Scope) Curve(cfg AcquisitionConfig) (*Curve, error) {
	a := s.begin(cfg)
	c, err := a.curve()
	if err != nil {
		return nil, a.fail(err)
	}
	a.done(c)
	return c, nil
}

// Waveform is Curve followed by a WFMPRE? query whose scaling fields turn the
// samples into points.
func (s *Scope) Waveform(cfg AcquisitionConfig) (*Waveform, error) {
	a := s.begin(cfg)
	c, err := a.curve()
	if err != nil {
		return nil, a.fail(err)
	}
	a.enter(StateScaled)
	pre, err := s.ch.ReadPreamble()
	if err != nil {
		return nil, a.fail(err)
	}
	points, err := Scale(c.Frame.Samples, pre)
	if err != nil {
		return nil, a.fail(err)
	}
	a.done(c)
	return &Waveform{Curve: *c, Preamble: pre, Points: points}, nil
}

type acquisition struct {
	s     *Scope
	cfg   AcquisitionConfig
	state State
	log   logrus.FieldLogger
}

func (s *Scope) begin(cfg AcquisitionConfig) *acquisition {
	return &acquisition{
		s:   s,
		cfg: cfg,
		log: s.log.WithFields(logrus.Fields{"source": cfg.source, "width": int(cfg.width)}),
	}
}

func (a *acquisition) enter(st State) {
	a.state = st
	a.log.WithField("state", st.String()).Debug("acquisition")
}

func (a *acquisition) fail(err error) error {
	a.log.WithError(err).WithField("state", a.state.String()).Warn("acquisition failed")
	a.s.obs.AcquisitionFailed(a.state, err)
	return &AcquisitionError{State: a.state, Err: err}
}

func (a *acquisition) done(c *Curve) {
	a.enter(StateDone)
	a.log.WithFields(logrus.Fields{
		"points":  c.PointCount,
		"bytes":   c.FrameBytes,
		"elapsed": c.Elapsed,
	}).Info("acquisition complete")
	a.s.obs.AcquisitionCompleted(a.cfg.source, a.cfg.width, c.FrameBytes, c.Elapsed)
}

func (a *acquisition) curve() (*Curve, error) {
	ch := a.s.ch

	a.enter(StateConfiguring)
	if err := a.configure(); err != nil {
		return nil, err
	}

	a.enter(StateCountQueried)
	count, err := a.s.PointCount()
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, errors.Wrapf(ErrProtocolFormat, "negative point count %d", count)
	}

	a.enter(StateTriggered)
	start := time.Now()
	if err := ch.SendCommand("CURVE?"); err != nil {
		return nil, err
	}
	raw, err := ch.ReadResponse()
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)
	a.enter(StateFrameReceived)

	a.enter(StateDecoded)
	frame, err := DecodeFrame(raw, count, a.cfg.width)
	if err != nil {
		return nil, err
	}
	return &Curve{
		Frame:      frame,
		PointCount: count,
		Width:      a.cfg.width,
		FrameBytes: len(raw),
		Elapsed:    elapsed,
	}, nil
}

// configure sends the transfer settings. Order matters: later settings
// override defaults implied by earlier ones.
func (a *acquisition) configure() error {
	ch := a.s.ch
	if err := ch.HeadersOff(); err != nil {
		return err
	}
	steps := [][2]string{
		{"DATA:SOURCE", a.cfg.source},
		{"DATA:WIDTH", strconv.Itoa(int(a.cfg.width))},
		{"DATA:ENCDG", "RPBinary"},
		{"WFMPRE:PT_Fmt", "Y"},
		{"DATA:START", strconv.Itoa(a.cfg.start)},
		{"DATA:STOP", strconv.Itoa(a.cfg.stop)},
	}
	for _, st := range steps {
		if err := ch.SendCommand(st[0], st[1]); err != nil {
			return err
		}
	}
	return nil
}
