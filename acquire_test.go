package tekscope

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewAcquisitionConfig(t *testing.T) {
	cfg, err := NewAcquisitionConfig("", DoubleByte, 0, 0)
	require.NoError(t, err)
	require.Equal(t, "CH1", cfg.Source())
	require.Equal(t, DoubleByte, cfg.Width())
	require.Equal(t, 1, cfg.Start())
	require.Equal(t, MaxPoints, cfg.Stop())

	for _, tc := range []struct {
		name        string
		width       SampleWidth
		start, stop int
	}{
		{"width", SampleWidth(4), 1, 10},
		{"negative start", SingleByte, -1, 10},
		{"stop before start", SingleByte, 10, 5},
		{"stop past record", SingleByte, 1, MaxPoints + 1},
	} {
		_, err := NewAcquisitionConfig("CH2", tc.width, tc.start, tc.stop)
		require.ErrorIs(t, err, ErrInvalidConfig, tc.name)
	}
}

func TestScope_Curve(t *testing.T) {
	tr := &fakeTransport{
		replies: []string{"3"},
		stream:  append([]byte("PRE"), 10, 20, 30),
	}
	obs := &recordingObserver{}
	scope := NewScope(tr, Options{Observer: obs})

	cfg, err := NewAcquisitionConfig("CH1", SingleByte, 1, 3)
	require.NoError(t, err)

	curve, err := scope.Curve(cfg)
	require.NoError(t, err)
	require.Equal(t, []byte("PRE"), curve.Frame.Preamble)
	require.Equal(t, []uint16{10, 20, 30}, curve.Frame.Samples)
	require.Equal(t, 3, curve.PointCount)
	require.Equal(t, 6, curve.FrameBytes)
	require.GreaterOrEqual(t, curve.Elapsed.Nanoseconds(), int64(0))

	require.Equal(t, []string{
		"HEADER OFF\r",
		"DATA:SOURCE CH1\r",
		"DATA:WIDTH 1\r",
		"DATA:ENCDG RPBinary\r",
		"WFMPRE:PT_Fmt Y\r",
		"DATA:START 1\r",
		"DATA:STOP 3\r",
		"HEADER OFF\r",
		"WFMPRE:NR_PT?\r",
		"CURVE?\r",
	}, tr.written)
	require.Len(t, obs.completed, 1)
	require.Equal(t, 6, obs.bytes)
	require.Empty(t, obs.failed)
}

func TestScope_CurveDoubleByte(t *testing.T) {
	samples := []uint16{0, 1, 0x7fff, 0xfffe}
	raw := append(EncodeFrame(BlockHeader(8), samples, DoubleByte), '\n')
	tr := &fakeTransport{replies: []string{"4"}, stream: raw}
	scope := NewScope(tr, Options{})

	cfg, err := NewAcquisitionConfig("REF1", DoubleByte, 100, 103)
	require.NoError(t, err)

	curve, err := scope.Curve(cfg)
	require.NoError(t, err)
	require.Equal(t, samples, curve.Frame.Samples)
	require.Equal(t, "#18", string(curve.Frame.Preamble))
	require.Contains(t, tr.written, "DATA:WIDTH 2\r")
	require.Contains(t, tr.written, "DATA:SOURCE REF1\r")
}

func TestScope_CurvePointCountMismatch(t *testing.T) {
	tr := &fakeTransport{
		replies: []string{"3"},
		stream:  []byte{10, 20},
	}
	obs := &recordingObserver{}
	scope := NewScope(tr, Options{Observer: obs})

	cfg, err := NewAcquisitionConfig("CH1", SingleByte, 1, 3)
	require.NoError(t, err)

	curve, err := scope.Curve(cfg)
	require.Nil(t, curve)
	require.ErrorIs(t, err, ErrFrameIntegrity)

	var acqErr *AcquisitionError
	require.True(t, errors.As(err, &acqErr))
	require.Equal(t, StateDecoded, acqErr.State)
	require.Equal(t, []State{StateDecoded}, obs.failed)
	require.Empty(t, obs.completed)
}

func TestScope_WaveformPointCountMismatch(t *testing.T) {
	tr := &fakeTransport{
		replies: []string{"3", wfmpreRecord},
		stream:  append(BlockHeader(2), 10, 20),
	}
	scope := NewScope(tr, Options{})

	cfg, err := NewAcquisitionConfig("CH1", SingleByte, 1, 3)
	require.NoError(t, err)

	wfm, err := scope.Waveform(cfg)
	require.Nil(t, wfm)
	require.ErrorIs(t, err, ErrFrameIntegrity)
	require.NotContains(t, tr.written, "WFMPRE?\r")
}

func TestScope_CurveBadPointCount(t *testing.T) {
	tr := &fakeTransport{replies: []string{"many"}}
	scope := NewScope(tr, Options{})

	cfg, err := NewAcquisitionConfig("CH1", SingleByte, 1, 3)
	require.NoError(t, err)

	_, err = scope.Curve(cfg)
	require.ErrorIs(t, err, ErrProtocolFormat)
	var acqErr *AcquisitionError
	require.True(t, errors.As(err, &acqErr))
	require.Equal(t, StateCountQueried, acqErr.State)
	require.NotContains(t, tr.written, "CURVE?\r")
}

func TestScope_CurveWriteFailure(t *testing.T) {
	tr := &fakeTransport{writeErr: errBrokenLink}
	scope := NewScope(tr, Options{})

	cfg, err := NewAcquisitionConfig("CH1", SingleByte, 1, 3)
	require.NoError(t, err)

	_, err = scope.Curve(cfg)
	require.ErrorIs(t, err, errBrokenLink)
	var acqErr *AcquisitionError
	require.True(t, errors.As(err, &acqErr))
	require.Equal(t, StateConfiguring, acqErr.State)
}

func TestScope_CurveResponseTooLong(t *testing.T) {
	tr := &fakeTransport{replies: []string{"3"}, stream: make([]byte, 64)}
	scope := NewScope(tr, Options{MaxResponse: 16})

	cfg, err := NewAcquisitionConfig("CH1", SingleByte, 1, 3)
	require.NoError(t, err)

	_, err = scope.Curve(cfg)
	require.ErrorIs(t, err, ErrResponseTooLong)
}

func TestScope_Waveform(t *testing.T) {
	preamble := "1;8;BIN;RP;MSB;3;\"Ch1\";Y;0.1;0;0.0;\"s\";2.0;0.0;128;\"V\""
	tr := &fakeTransport{
		replies: []string{"3", preamble},
		stream:  append(BlockHeader(3), 128, 138, 118, '\n'),
	}
	obs := &recordingObserver{}
	scope := NewScope(tr, Options{Observer: obs})

	cfg, err := NewAcquisitionConfig("CH1", SingleByte, 1, 3)
	require.NoError(t, err)

	wfm, err := scope.Waveform(cfg)
	require.NoError(t, err)
	require.Equal(t, `"V"`, wfm.Preamble.YUnits)
	require.Equal(t, []uint16{128, 138, 118}, wfm.Frame.Samples)
	require.Equal(t, []Point{{0.0, 0.0}, {0.1, 20.0}, {0.2, -20.0}}, slices.Collect(wfm.Points))
	require.Equal(t, "WFMPRE?\r", tr.written[len(tr.written)-1])
	require.Len(t, obs.completed, 1)
}

func TestScope_WaveformBadScaling(t *testing.T) {
	preamble := "1;8;BIN;RP;MSB;3;\"Ch1\";Y;fast;0;0.0;\"s\";2.0;0.0;128;\"V\""
	tr := &fakeTransport{
		replies: []string{"3", preamble},
		stream:  append(BlockHeader(3), 1, 2, 3),
	}
	obs := &recordingObserver{}
	scope := NewScope(tr, Options{Observer: obs})

	cfg, err := NewAcquisitionConfig("CH1", SingleByte, 1, 3)
	require.NoError(t, err)

	wfm, err := scope.Waveform(cfg)
	require.Nil(t, wfm)
	require.ErrorIs(t, err, ErrProtocolFormat)
	require.Equal(t, []State{StateScaled}, obs.failed)
}

func TestScope_Close(t *testing.T) {
	tr := &fakeTransport{}
	scope := NewScope(tr, Options{})
	require.NoError(t, scope.Close())
	require.True(t, tr.closed)
}

func TestState_String(t *testing.T) {
	require.Equal(t, "configuring", StateConfiguring.String())
	require.Equal(t, "done", StateDone.String())
	require.Equal(t, "state(42)", State(42).String())
}
