package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/luhtfiimanal/go-tekscope/serial"
)

type Config struct {
	Serial      SerialConfig      `yaml:"serial"`
	Acquisition AcquisitionConfig `yaml:"acquisition"`
	Log         LogConfig         `yaml:"log"`
	Monitor     MonitorConfig     `yaml:"monitor"`
	Redis       RedisConfig       `yaml:"redis"`
}

type SerialConfig struct {
	Device      string        `yaml:"device"`
	BaudRate    int           `yaml:"baud_rate"`
	Driver      string        `yaml:"driver"`
	Delimiter   string        `yaml:"delimiter"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

type AcquisitionConfig struct {
	Source string `yaml:"source"`
	// Double selects two-byte samples.
	Double      bool `yaml:"double"`
	Start       int  `yaml:"start"`
	Stop        int  `yaml:"stop"`
	MaxResponse int  `yaml:"max_response"`
}

type LogConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type MonitorConfig struct {
	Enabled     bool   `yaml:"enabled"`
	MetricsAddr string `yaml:"metrics_addr"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
	// Keep is how many captures per source stay in the backup list.
	Keep int `yaml:"keep"`
}

// Port returns the serial settings in the form serial.Connect takes.
func (c SerialConfig) Port() serial.Config {
	return serial.Config{
		Device:      c.Device,
		BaudRate:    c.BaudRate,
		Delimiter:   c.Delimiter,
		ReadTimeout: c.ReadTimeout,
		Driver:      c.Driver,
	}
}

// Load reads a YAML file on top of Default, so omitted keys keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return config, nil
}

// Default matches the scope's factory RS-232 settings: 9600 baud, LF-terminated replies.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Device:      "/dev/ttyUSB0",
			BaudRate:    9600,
			Driver:      serial.DriverNative,
			Delimiter:   "\n",
			ReadTimeout: 2 * time.Second,
		},
		Acquisition: AcquisitionConfig{
			Source: "CH1",
			Double: true,
			Start:  1,
			Stop:   10000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Monitor: MonitorConfig{
			Enabled:     false,
			MetricsAddr: ":9090",
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			Channel: "tekscope_waveforms",
			Keep:    100,
		},
	}
}
