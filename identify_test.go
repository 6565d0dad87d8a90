package tekscope

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

const tds3034ID = "TEKTRONIX,TDS 3034,0,CF:91.1CT FV:v2.11 TDS3GM:v1.00 TDS3FFT:v1.00 TDS3TRG:v1.00"

func TestScope_Identify(t *testing.T) {
	tr := &fakeTransport{replies: []string{tds3034ID}}
	scope := NewScope(tr, Options{})

	id, err := scope.Identify()
	require.NoError(t, err)
	require.Equal(t, tds3034ID, id)
	require.Equal(t, "*IDN?\r", tr.written[len(tr.written)-1])
}

func TestScope_SanityCheck(t *testing.T) {
	tr := &fakeTransport{replies: []string{tds3034ID, "TEKTRONIX,TDS 2024B,0,CF:91.1CT FV:v22.11"}}
	scope := NewScope(tr, Options{})

	ok, err := scope.SanityCheck()
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = scope.SanityCheck()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestScope_ForceSanity(t *testing.T) {
	tr := &fakeTransport{replies: []string{tds3034ID, "RIGOL TECHNOLOGIES,DS1054Z,DS1ZA000000000,00.04.04"}}
	scope := NewScope(tr, Options{})

	require.NoError(t, scope.ForceSanity())
	require.ErrorIs(t, scope.ForceSanity(), ErrUnexpectedDevice)
}

func TestScope_PointCount(t *testing.T) {
	tr := &fakeTransport{replies: []string{"10000"}}
	scope := NewScope(tr, Options{})

	n, err := scope.PointCount()
	require.NoError(t, err)
	require.Equal(t, 10000, n)
	require.Equal(t, "WFMPRE:NR_PT?\r", tr.written[len(tr.written)-1])
}

func TestScope_Screenshot(t *testing.T) {
	image := []byte("II*\x00\x08\x00\x00\x00")
	tr := &fakeTransport{stream: image}
	scope := NewScope(tr, Options{})

	var buf bytes.Buffer
	require.NoError(t, scope.WriteScreenshot(&buf, DefaultScreenshotOptions()))
	require.Equal(t, image, buf.Bytes())
	require.Equal(t, []string{
		"HARDCOPY:FORMAT TIFF\r",
		"HARDCOPY:LAYOUT portrait\r",
		"HARDCOPY:INKSAVER on\r",
		"HARDCOPY:PORT RS232\r",
		"HARDCOPY START\r",
	}, tr.written)
}

func TestScope_ScreenshotOptions(t *testing.T) {
	tr := &fakeTransport{stream: []byte("BM")}
	scope := NewScope(tr, Options{})

	data, err := scope.Screenshot(ScreenshotOptions{Format: "BMPColor", Landscape: true})
	require.NoError(t, err)
	require.Equal(t, "BM", string(data))
	require.Contains(t, tr.written, "HARDCOPY:FORMAT BMPColor\r")
	require.Contains(t, tr.written, "HARDCOPY:LAYOUT landscape\r")
	require.Contains(t, tr.written, "HARDCOPY:INKSAVER off\r")
}
