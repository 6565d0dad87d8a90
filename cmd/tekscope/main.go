// Package main is the tekscope command line tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	tekscope "github.com/luhtfiimanal/go-tekscope"
	"github.com/luhtfiimanal/go-tekscope/internal/config"
	"github.com/luhtfiimanal/go-tekscope/internal/logging"
)

const (
	// Global flags.
	flagConfig   = "config"
	flagDevice   = "device"
	flagBaud     = "baud"
	flagDriver   = "driver"
	flagTimeout  = "timeout"
	flagLogLevel = "log-level"
	flagMetrics  = "metrics"

	// Acquisition flags.
	flagSource   = "source"
	flagWidth    = "width"
	flagStart    = "start"
	flagStop     = "stop"
	flagCount    = "count"
	flagInterval = "interval"
	flagOutput   = "output"

	// Screenshot flags.
	flagFormat     = "format"
	flagLandscape  = "landscape"
	flagNoInkSaver = "no-inksaver"

	flagCheck = "check"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(tekscope.CurrentVersion()).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(version tekscope.VersionInfo) *cli.App {
	e := &env{}

	acquisitionFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  flagSource,
			Usage: "waveform to transfer, e.g. CH1, MATH or REF2",
		},
		&cli.IntFlag{
			Name:  flagWidth,
			Usage: "bytes per sample, 1 or 2",
		},
		&cli.IntFlag{
			Name:  flagStart,
			Usage: "first point, counted from 1",
		},
		&cli.IntFlag{
			Name:  flagStop,
			Usage: "last point",
		},
	}

	return &cli.App{
		Name:    "tekscope",
		Usage:   "talk to a Tektronix TDS3000 oscilloscope over RS-232",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.StringFlag{
				Name:    flagDevice,
				Aliases: []string{"d"},
				Usage:   "serial device",
			},
			&cli.IntFlag{
				Name:  flagBaud,
				Usage: "baud rate",
			},
			&cli.StringFlag{
				Name:  flagDriver,
				Usage: "serial driver, native or portable",
			},
			&cli.DurationFlag{
				Name:  flagTimeout,
				Usage: "idle time that ends a response",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "log level",
			},
			&cli.StringFlag{
				Name:  flagMetrics,
				Usage: "serve prometheus metrics on `ADDR`",
			},
		},
		Before: e.setup,
		After:  e.teardown,
		Commands: []*cli.Command{
			{
				Name:   "version",
				Usage:  "print version info",
				Action: versionAction(version),
			},
			{
				Name:  "identify",
				Usage: "print the *IDN? reply",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  flagCheck,
						Usage: "fail unless the device is a TDS3000-series scope",
					},
				},
				Action: e.identifyAction,
			},
			{
				Name:   "curve",
				Usage:  "transfer raw samples, one per line",
				Flags:  acquisitionFlags,
				Action: e.curveAction,
			},
			{
				Name:  "waveform",
				Usage: "transfer scaled points as \"x y\" lines",
				Flags: append(acquisitionFlags,
					&cli.IntFlag{
						Name:  flagCount,
						Value: 1,
						Usage: "number of captures, 0 runs until interrupted",
					},
					&cli.DurationFlag{
						Name:  flagInterval,
						Usage: "pause between captures",
					},
					&cli.StringFlag{
						Name:    flagOutput,
						Aliases: []string{"o"},
						Usage:   "write points to `FILE` instead of stdout",
					},
				),
				Action: e.waveformAction,
			},
			{
				Name:  "screenshot",
				Usage: "save a hardcopy of the display",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagOutput,
						Aliases:  []string{"o"},
						Required: true,
						Usage:    "write the image to `FILE`",
					},
					&cli.StringFlag{
						Name:  flagFormat,
						Value: "TIFF",
						Usage: "hardcopy format",
					},
					&cli.BoolFlag{
						Name: flagLandscape,
					},
					&cli.BoolFlag{
						Name: flagNoInkSaver,
					},
				},
				Action: e.screenshotAction,
			},
			{
				Name:      "get",
				Usage:     "query a device setting",
				ArgsUsage: "NAME",
				Action:    e.getAction,
			},
			{
				Name:      "set",
				Usage:     "change a device setting",
				ArgsUsage: "NAME VALUE",
				Action:    e.setAction,
			},
			{
				Name:   "settings",
				Usage:  "list the setting names get and set accept",
				Action: settingsAction,
			},
		},
	}
}

// env is what Before builds for the commands: the merged config and the logger.
type env struct {
	cfg *config.Config
	log *logrus.Logger

	// cleanup runs in After.
	cleanup []func() error
}

func (e *env) setup(c *cli.Context) error {
	cfg := config.Default()
	if path := c.String(flagConfig); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	applyFlags(c, cfg)

	e.cfg = cfg
	e.log = logging.New(cfg.Log)
	return nil
}

// applyFlags overrides cfg with the global flags that were set.
func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet(flagDevice) {
		cfg.Serial.Device = c.String(flagDevice)
	}
	if c.IsSet(flagBaud) {
		cfg.Serial.BaudRate = c.Int(flagBaud)
	}
	if c.IsSet(flagDriver) {
		cfg.Serial.Driver = c.String(flagDriver)
	}
	if c.IsSet(flagTimeout) {
		cfg.Serial.ReadTimeout = c.Duration(flagTimeout)
	}
	if c.IsSet(flagLogLevel) {
		cfg.Log.Level = c.String(flagLogLevel)
	}
	if c.IsSet(flagMetrics) {
		cfg.Monitor.Enabled = true
		cfg.Monitor.MetricsAddr = c.String(flagMetrics)
	}
}
