package config

import (
	"os"
	"time"

	"checkpoint-quiz/internal/app"
	"checkpoint-quiz/internal/engine"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL          string `yaml:"ttl"`
		PresetsDir   string `yaml:"presetsDir"`
		ClockRefresh string `yaml:"clockRefresh"`
		Delays       struct {
			Correct    string `yaml:"correct"`
			Wrong      string `yaml:"wrong"`
			Checkpoint string `yaml:"checkpoint"`
			Skip       string `yaml:"skip"`
		} `yaml:"delays"`
	} `yaml:"quiz"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// RunnerConfig builds the runner timings, falling back to the defaults for unset values.
func (c Config) RunnerConfig() app.RunnerConfig {
	def := app.DefaultRunnerConfig()
	d := c.Quiz.Delays
	return app.RunnerConfig{
		Delays: engine.Delays{
			Correct:    TTLDuration(d.Correct, def.Delays.Correct),
			Wrong:      TTLDuration(d.Wrong, def.Delays.Wrong),
			Checkpoint: TTLDuration(d.Checkpoint, def.Delays.Checkpoint),
			Skip:       TTLDuration(d.Skip, def.Delays.Skip),
		},
		ClockRefresh: TTLDuration(c.Quiz.ClockRefresh, def.ClockRefresh),
	}
}
