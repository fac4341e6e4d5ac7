package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/claude/physioreps/internal/engine"
	"github.com/claude/physioreps/internal/kinematics"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Engine    EngineConfig    `yaml:"engine"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// EngineConfig holds the biomechanical tuning parameters. All fields have
// defaults; they are calibration knobs, not required settings.
type EngineConfig struct {
	UpperThreshold    float64 `yaml:"upper_threshold"`
	LowerThreshold    float64 `yaml:"lower_threshold"`
	MinRepDurationSec float64 `yaml:"min_rep_duration_sec"`
	Side              string  `yaml:"side"`
	MinVisibility     float64 `yaml:"min_visibility"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Thresholds projects the YAML fields into the engine's Config type.
func (e EngineConfig) Thresholds() engine.Config {
	return engine.Config{
		UpperThreshold:    e.UpperThreshold,
		LowerThreshold:    e.LowerThreshold,
		MinRepDurationSec: e.MinRepDurationSec,
	}
}

// TrackedSide returns the configured leg side.
func (e EngineConfig) TrackedSide() kinematics.Side {
	return kinematics.Side(e.Side)
}

// Load reads config from a YAML file, then applies environment variable
// overrides. Env vars use the prefix PHYSIOREPS_ and underscore-separated
// paths:
//
//	PHYSIOREPS_SERVER_HOST, PHYSIOREPS_SERVER_PORT,
//	PHYSIOREPS_DB_HOST, PHYSIOREPS_DB_PORT, PHYSIOREPS_DB_NAME,
//	PHYSIOREPS_DB_USER, PHYSIOREPS_DB_PASSWORD, PHYSIOREPS_DB_SSLMODE,
//	PHYSIOREPS_AUTH_API_KEY,
//	PHYSIOREPS_ENGINE_UPPER_THRESHOLD, PHYSIOREPS_ENGINE_LOWER_THRESHOLD,
//	PHYSIOREPS_ENGINE_MIN_REP_DURATION_SEC, PHYSIOREPS_ENGINE_SIDE
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyEngineDefaults(&cfg.Engine)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PHYSIOREPS_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PHYSIOREPS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PHYSIOREPS_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("PHYSIOREPS_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("PHYSIOREPS_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("PHYSIOREPS_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("PHYSIOREPS_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("PHYSIOREPS_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("PHYSIOREPS_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("PHYSIOREPS_ENGINE_UPPER_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Engine.UpperThreshold = f
		}
	}
	if v := os.Getenv("PHYSIOREPS_ENGINE_LOWER_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Engine.LowerThreshold = f
		}
	}
	if v := os.Getenv("PHYSIOREPS_ENGINE_MIN_REP_DURATION_SEC"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Engine.MinRepDurationSec = f
		}
	}
	if v := os.Getenv("PHYSIOREPS_ENGINE_SIDE"); v != "" {
		cfg.Engine.Side = v
	}
}

func applyEngineDefaults(e *EngineConfig) {
	def := engine.DefaultConfig()
	if e.UpperThreshold == 0 {
		e.UpperThreshold = def.UpperThreshold
	}
	if e.LowerThreshold == 0 {
		e.LowerThreshold = def.LowerThreshold
	}
	if e.MinRepDurationSec == 0 {
		e.MinRepDurationSec = def.MinRepDurationSec
	}
	if e.Side == "" {
		e.Side = string(kinematics.SideRight)
	}
	if e.MinVisibility == 0 {
		e.MinVisibility = 0.6
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	// Threshold ordering is fatal before any frame is processed.
	if _, err := engine.NewStateMachine(c.Engine.Thresholds()); err != nil {
		return err
	}
	if _, _, _, err := c.Engine.TrackedSide().Joints(); err != nil {
		return fmt.Errorf("engine.side: %w", err)
	}
	if c.Engine.MinVisibility < 0 || c.Engine.MinVisibility > 1 {
		return fmt.Errorf("engine.min_visibility must be in [0,1], got %g", c.Engine.MinVisibility)
	}
	return nil
}
