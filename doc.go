// Package tekscope drives Tektronix TDS3000-series oscilloscopes over a
// serial link and retrieves captured waveforms.
//
// The driver speaks the scope's text protocol: commands are written as
// "<NAME> <args...>\r" with no reply, queries as "<NAME>?\r" with a one-line
// reply. Curve transfers are the exception. After CURVE? the scope sends a
// single unterminated frame made of a short ASCII preamble followed by the
// binary sample array, and the end of the frame is recognised only by the
// line going quiet for the transport's read timeout.
//
// Features:
//   - Curve acquisition with integrity checks on the received frame
//   - Waveform scaling to (seconds, volts) from the WFMPRE record
//   - Identification, screenshots and a table of named device settings
//   - Any Transport works; package serial provides the real one
//
// Example usage:
//
//	port, err := serial.Connect(serial.Config{
//	    Device:      "/dev/ttyUSB0",
//	    BaudRate:    9600,
//	    ReadTimeout: 2 * time.Second,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	scope := tekscope.NewScope(port, tekscope.Options{})
//	defer scope.Close()
//
//	cfg, err := tekscope.NewAcquisitionConfig("CH1", tekscope.SingleByte, 1, 10000)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	wfm, err := scope.Waveform(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for pt := range wfm.Points {
//	    fmt.Printf("%f %f\n", pt.X, pt.Y)
//	}
package tekscope
