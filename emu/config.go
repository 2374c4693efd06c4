package emu

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"nsfplay/emu/log"
	"nsfplay/hw/apu"

	"github.com/BurntSushi/toml"
	"github.com/kirsle/configdir"
)

type Config struct {
	Audio    AudioConfig    `toml:"audio"`
	Playback PlaybackConfig `toml:"playback"`

	TraceOut io.Writer `toml:"-"`
}

type AudioConfig struct {
	SampleRate int        `toml:"sample_rate"`
	SampleBits int        `toml:"sample_bits"`
	Stereo     bool       `toml:"stereo"`
	Filter     apu.Filter `toml:"filter"`
}

// Format returns the sample format described by the audio configuration.
func (acfg AudioConfig) Format() apu.Format {
	return apu.Format{
		SampleRate: acfg.SampleRate,
		Bits:       acfg.SampleBits,
		Stereo:     acfg.Stereo,
	}
}

type PlaybackConfig struct {
	// StrictTrack rejects out of range tracks instead of clamping them.
	StrictTrack bool `toml:"strict_track"`

	// InitFrames is the number of frames the init routine may take.
	InitFrames int `toml:"init_frames"`

	// Muted lists the channels excluded from the mix.
	Muted []string `toml:"muted"`
}

const defaultInitFrames = 120

// DefaultConfig returns the configuration used when none has been saved.
func DefaultConfig() Config {
	return Config{
		Audio: AudioConfig{
			SampleRate: 44100,
			SampleBits: 16,
			Filter:     apu.FilterNone,
		},
		Playback: PlaybackConfig{
			InitFrames: defaultInitFrames,
		},
	}
}

// Check validates the configuration and fills unset values with defaults.
func (cfg *Config) Check() error {
	def := DefaultConfig()
	if cfg.Audio.SampleRate == 0 {
		cfg.Audio.SampleRate = def.Audio.SampleRate
	}
	if cfg.Audio.SampleBits == 0 {
		cfg.Audio.SampleBits = def.Audio.SampleBits
	}
	if cfg.Playback.InitFrames <= 0 {
		cfg.Playback.InitFrames = def.Playback.InitFrames
	}
	if err := cfg.Audio.Format().Validate(); err != nil {
		return err
	}
	for _, name := range cfg.Playback.Muted {
		if _, err := apu.ParseChannel(name); err != nil {
			return fmt.Errorf("muted channels: %w", err)
		}
	}
	return nil
}

// ConfigDir returns the nsfplay config directory, creating it if needed.
var ConfigDir = sync.OnceValue(func() string {
	dir := configdir.LocalConfig("nsfplay")
	if err := configdir.MakePath(dir); err != nil {
		log.ModEmu.Warnf("failed to create directory %s: %v", dir, err)
	}
	return dir
})

const cfgFilename = "config.toml"

// LoadConfig loads the configuration at path. Values absent from the file
// keep their default.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return DefaultConfig(), err
	}
	if err := cfg.Check(); err != nil {
		return DefaultConfig(), fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadConfigOrDefault loads the configuration from the nsfplay config
// directory, or provide a default one.
func LoadConfigOrDefault() Config {
	path := filepath.Join(ConfigDir(), cfgFilename)
	cfg, err := LoadConfig(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.ModEmu.WarnZ("ignoring config file").Error("err", err).End()
		}
		return DefaultConfig()
	}
	return cfg
}

// SaveConfig into nsfplay config directory.
func SaveConfig(cfg Config) error {
	return writeConfig(filepath.Join(ConfigDir(), cfgFilename), cfg)
}

func writeConfig(path string, cfg Config) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}
