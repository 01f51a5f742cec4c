package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Decoder DecoderConfig `yaml:"decoder"`
	Sources SourcesConfig `yaml:"sources"`
	Record  RecordConfig  `yaml:"record"`
	Vessels VesselsConfig `yaml:"vessels"`
	Web     WebConfig     `yaml:"web"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Forward ForwardConfig `yaml:"forward"`
	Log     LogConfig     `yaml:"log"`
}

type DecoderConfig struct {
	// StrictLength rejects messages whose bit length does not match the
	// layout of their type. Defaults to true when omitted.
	StrictLength   *bool         `yaml:"strict_length"`
	FragmentMaxAge time.Duration `yaml:"fragment_max_age"`
	ExpireInterval time.Duration `yaml:"expire_interval"`
}

// Strict reports the effective length policy.
func (d DecoderConfig) Strict() bool {
	return d.StrictLength == nil || *d.StrictLength
}

type SourcesConfig struct {
	TCP    []TCPSourceConfig  `yaml:"tcp"`
	Serial SerialSourceConfig `yaml:"serial"`
	Replay ReplayConfig       `yaml:"replay"`
}

type TCPSourceConfig struct {
	Name           string        `yaml:"name"`
	Addr           string        `yaml:"addr"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
}

type SerialSourceConfig struct {
	Enable bool   `yaml:"enable"`
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

type RecordConfig struct {
	Enable bool   `yaml:"enable"`
	Path   string `yaml:"path"`
}

type ReplayConfig struct {
	Enable bool    `yaml:"enable"`
	Path   string  `yaml:"path"`
	Speed  float64 `yaml:"speed"`
	Loop   bool    `yaml:"loop"`
}

type VesselsConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	MaxTargets int           `yaml:"max_targets"`
}

type WebConfig struct {
	Listen string `yaml:"listen"`
}

type MQTTConfig struct {
	Enable   bool   `yaml:"enable"`
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`
}

type ForwardConfig struct {
	Enable bool   `yaml:"enable"`
	Dest   string `yaml:"dest"`
}

type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) applyDefaults() error {
	if cfg.Decoder.FragmentMaxAge < 0 {
		return fmt.Errorf("decoder.fragment_max_age must be >= 0")
	}
	if cfg.Decoder.FragmentMaxAge == 0 {
		cfg.Decoder.FragmentMaxAge = 10 * time.Second
	}
	if cfg.Decoder.ExpireInterval <= 0 {
		cfg.Decoder.ExpireInterval = 1 * time.Second
	}

	seen := make(map[string]bool, len(cfg.Sources.TCP))
	for i := range cfg.Sources.TCP {
		src := &cfg.Sources.TCP[i]
		src.Name = strings.TrimSpace(src.Name)
		src.Addr = strings.TrimSpace(src.Addr)
		if src.Addr == "" {
			return fmt.Errorf("sources.tcp[%d].addr is required", i)
		}
		if src.Name == "" {
			src.Name = src.Addr
		}
		if seen[src.Name] {
			return fmt.Errorf("sources.tcp[%d].name %q is duplicated", i, src.Name)
		}
		seen[src.Name] = true
		if src.ReconnectDelay <= 0 {
			src.ReconnectDelay = 2 * time.Second
		}
	}

	if cfg.Sources.Serial.Enable {
		if strings.TrimSpace(cfg.Sources.Serial.Device) == "" {
			return fmt.Errorf("sources.serial.device is required when sources.serial.enable is true")
		}
		if cfg.Sources.Serial.Baud == 0 {
			cfg.Sources.Serial.Baud = 38400
		}
		if cfg.Sources.Serial.Baud < 0 {
			return fmt.Errorf("sources.serial.baud must be > 0")
		}
	}

	if cfg.Sources.Replay.Enable {
		if cfg.Sources.Replay.Path == "" {
			return fmt.Errorf("sources.replay.path is required when sources.replay.enable is true")
		}
		if cfg.Sources.Replay.Speed == 0 {
			cfg.Sources.Replay.Speed = 1
		}
		if cfg.Sources.Replay.Speed < 0 {
			return fmt.Errorf("sources.replay.speed must be > 0")
		}
	}

	if cfg.Record.Enable && cfg.Record.Path == "" {
		return fmt.Errorf("record.path is required when record.enable is true")
	}
	if cfg.Record.Enable && cfg.Sources.Replay.Enable {
		return fmt.Errorf("record and sources.replay cannot both be enabled")
	}

	if len(cfg.Sources.TCP) == 0 && !cfg.Sources.Serial.Enable && !cfg.Sources.Replay.Enable {
		return fmt.Errorf("at least one of sources.tcp, sources.serial or sources.replay is required")
	}

	if cfg.Vessels.TTL <= 0 {
		cfg.Vessels.TTL = 10 * time.Minute
	}
	if cfg.Vessels.MaxTargets <= 0 {
		cfg.Vessels.MaxTargets = 5000
	}

	if cfg.Web.Listen == "" {
		cfg.Web.Listen = ":8080"
	}

	if cfg.MQTT.Enable {
		if cfg.MQTT.Broker == "" {
			return fmt.Errorf("mqtt.broker is required when mqtt.enable is true")
		}
		if cfg.MQTT.ClientID == "" {
			cfg.MQTT.ClientID = "aisdecode"
		}
		if cfg.MQTT.Topic == "" {
			cfg.MQTT.Topic = "ais/messages"
		}
		if cfg.MQTT.QoS > 2 {
			return fmt.Errorf("mqtt.qos must be 0, 1 or 2")
		}
	}

	if cfg.Forward.Enable && cfg.Forward.Dest == "" {
		return fmt.Errorf("forward.dest is required when forward.enable is true")
	}

	if cfg.Log.File != "" {
		if cfg.Log.MaxSizeMB <= 0 {
			cfg.Log.MaxSizeMB = 25
		}
		if cfg.Log.MaxBackups <= 0 {
			cfg.Log.MaxBackups = 5
		}
		if cfg.Log.MaxAgeDays <= 0 {
			cfg.Log.MaxAgeDays = 7
		}
	}
	return nil
}
