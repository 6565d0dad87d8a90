package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	tekscope "github.com/luhtfiimanal/go-tekscope"
	"github.com/luhtfiimanal/go-tekscope/internal/config"
	"github.com/luhtfiimanal/go-tekscope/internal/monitor"
	"github.com/luhtfiimanal/go-tekscope/internal/storage"
	"github.com/luhtfiimanal/go-tekscope/serial"
)

// teardown releases what the command opened, newest first.
func (e *env) teardown(c *cli.Context) error {
	var err error
	for i := len(e.cleanup) - 1; i >= 0; i-- {
		err = multierr.Append(err, e.cleanup[i]())
	}
	e.cleanup = nil
	return err
}

func (e *env) openScope(c *cli.Context) (*tekscope.Scope, error) {
	port := e.cfg.Serial.Port()
	conn, err := serial.Connect(port)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", port.Device)
	}

	opts := tekscope.Options{
		Logger:      e.log.WithField("device", port.Device),
		MaxResponse: e.cfg.Acquisition.MaxResponse,
	}
	if e.cfg.Monitor.Enabled {
		mon := monitor.NewMonitor(prometheus.NewRegistry(), e.log)
		mon.StartMetricsServer(c.Context, e.cfg.Monitor.MetricsAddr)
		opts.Observer = mon
	}

	scope := tekscope.NewScope(conn, opts)
	e.cleanup = append(e.cleanup, scope.Close)
	return scope, nil
}

// acquisitionConfig merges the acquisition flags over the config file section.
func acquisitionConfig(c *cli.Context, cfg config.AcquisitionConfig) (tekscope.AcquisitionConfig, error) {
	source := cfg.Source
	if c.IsSet(flagSource) {
		source = c.String(flagSource)
	}
	width := tekscope.SingleByte
	if cfg.Double {
		width = tekscope.DoubleByte
	}
	if c.IsSet(flagWidth) {
		width = tekscope.SampleWidth(c.Int(flagWidth))
	}
	start, stop := cfg.Start, cfg.Stop
	if c.IsSet(flagStart) {
		start = c.Int(flagStart)
	}
	if c.IsSet(flagStop) {
		stop = c.Int(flagStop)
	}
	return tekscope.NewAcquisitionConfig(source, width, start, stop)
}

func versionAction(v tekscope.VersionInfo) cli.ActionFunc {
	return func(c *cli.Context) error {
		fmt.Fprintf(c.App.Writer, "tekscope %s (%s) built %s\n", v, v.PackageString(), v.DateString())
		return nil
	}
}

func (e *env) identifyAction(c *cli.Context) error {
	scope, err := e.openScope(c)
	if err != nil {
		return err
	}
	if c.Bool(flagCheck) {
		if err := scope.ForceSanity(); err != nil {
			return err
		}
	}
	id, err := scope.Identify()
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, id)
	return nil
}

func (e *env) curveAction(c *cli.Context) error {
	cfg, err := acquisitionConfig(c, e.cfg.Acquisition)
	if err != nil {
		return err
	}
	scope, err := e.openScope(c)
	if err != nil {
		return err
	}
	curve, err := scope.Curve(cfg)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(c.App.Writer)
	for _, s := range curve.Frame.Samples {
		fmt.Fprintln(w, s)
	}
	return w.Flush()
}

func (e *env) waveformAction(c *cli.Context) error {
	cfg, err := acquisitionConfig(c, e.cfg.Acquisition)
	if err != nil {
		return err
	}
	scope, err := e.openScope(c)
	if err != nil {
		return err
	}

	out := c.App.Writer
	if path := c.String(flagOutput); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrap(err, "create output")
		}
		e.cleanup = append(e.cleanup, f.Close)
		out = f
	}

	var mq *storage.MessageQueue
	if e.cfg.Redis.Enabled {
		mq, err = storage.NewMessageQueue(c.Context, e.cfg.Redis, e.log)
		if err != nil {
			return err
		}
		e.cleanup = append(e.cleanup, mq.Close)
	}

	count := c.Int(flagCount)
	interval := c.Duration(flagInterval)
	for i := 0; count <= 0 || i < count; i++ {
		if i > 0 {
			select {
			case <-c.Context.Done():
				return nil
			case <-time.After(interval):
			}
			// Blank line between captures, as gnuplot expects between data blocks.
			fmt.Fprintln(out)
		}

		w, err := scope.Waveform(cfg)
		if err != nil {
			return err
		}
		points := slices.Collect(w.Points)
		if err := writePoints(out, points); err != nil {
			return err
		}

		if s, err := summarize(points); err == nil {
			e.log.WithFields(s.fields()).WithField("source", cfg.Source()).Info("waveform")
		}

		if mq != nil {
			rec := storage.NewRecord(cfg.Source(), w, time.Now())
			if err := mq.Publish(c.Context, rec); err != nil {
				e.log.WithError(err).Warn("publish waveform")
			}
		}
	}
	return nil
}

func (e *env) screenshotAction(c *cli.Context) error {
	opts := tekscope.ScreenshotOptions{
		Format:    c.String(flagFormat),
		InkSaver:  !c.Bool(flagNoInkSaver),
		Landscape: c.Bool(flagLandscape),
	}
	scope, err := e.openScope(c)
	if err != nil {
		return err
	}

	path := c.String(flagOutput)
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	if err := scope.WriteScreenshot(f, opts); err != nil {
		return multierr.Append(err, f.Close())
	}
	if err := f.Close(); err != nil {
		return err
	}
	e.log.WithField("file", path).Info("screenshot saved")
	return nil
}

func (e *env) getAction(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return errors.New("get takes exactly one setting name")
	}
	scope, err := e.openScope(c)
	if err != nil {
		return err
	}
	v, err := scope.Get(c.Args().First())
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, v)
	return nil
}

func (e *env) setAction(c *cli.Context) error {
	if c.Args().Len() != 2 {
		return errors.New("set takes a setting name and a value")
	}
	name := c.Args().Get(0)
	if _, ok := tekscope.LookupSetting(name); !ok {
		return errors.Wrap(tekscope.ErrUnknownSetting, name)
	}
	scope, err := e.openScope(c)
	if err != nil {
		return err
	}
	return scope.Set(name, c.Args().Get(1))
}

func settingsAction(c *cli.Context) error {
	for _, name := range tekscope.SettingNames() {
		st, _ := tekscope.LookupSetting(name)
		fmt.Fprintf(c.App.Writer, "%-14s %s\n", name, st.Command)
	}
	return nil
}

func writePoints(w io.Writer, points []tekscope.Point) error {
	bw := bufio.NewWriter(w)
	for _, p := range points {
		if _, err := fmt.Fprintf(bw, "%f %f\n", p.X, p.Y); err != nil {
			return err
		}
	}
	return bw.Flush()
}

type summary struct {
	Min, Max, Mean, StdDev float64
}

// summarize describes the Y values of points.
func summarize(points []tekscope.Point) (summary, error) {
	ys := make(stats.Float64Data, len(points))
	for i, p := range points {
		ys[i] = p.Y
	}

	var s summary
	var err error
	if s.Min, err = ys.Min(); err != nil {
		return summary{}, err
	}
	if s.Max, err = ys.Max(); err != nil {
		return summary{}, err
	}
	if s.Mean, err = ys.Mean(); err != nil {
		return summary{}, err
	}
	if s.StdDev, err = ys.StandardDeviation(); err != nil {
		return summary{}, err
	}
	return s, nil
}

func (s summary) fields() logrus.Fields {
	return logrus.Fields{
		"min":    s.Min,
		"max":    s.Max,
		"mean":   s.Mean,
		"stddev": s.StdDev,
	}
}
