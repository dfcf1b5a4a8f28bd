package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/KyungWonPark/Connectome/internal/errors"
)

// Config holds everything a run needs. Root has no default: it must come from
// the config file, the environment or a flag.
type Config struct {
	Root   string       `yaml:"root"`
	Layout LayoutConfig `yaml:"layout"`
	Sweep  SweepConfig  `yaml:"sweep"`
	Log    LogConfig    `yaml:"log"`
}

// LayoutConfig describes where a subject's files live below Root.
// StatsDir is joined between the subject and the source directory.
type LayoutConfig struct {
	StatsDir       string `yaml:"stats_dir"`
	MatrixFile     string `yaml:"matrix_file"`
	WaytotalFile   string `yaml:"waytotal_file"`
	OutputFile     string `yaml:"output_file"`
	SymmetricDump  string `yaml:"symmetric_dump"`
	BinaryDumpStem string `yaml:"binary_dump_stem"`
}

// SweepConfig controls the density sweep
type SweepConfig struct {
	Lower           int  `yaml:"lower"`
	Upper           int  `yaml:"upper"`
	Workers         int  `yaml:"workers"`
	ExcludeDiagonal bool `yaml:"exclude_diagonal"`
	DumpNpy         bool `yaml:"dump_npy"`
}

// LogConfig controls logging
type LogConfig struct {
	Level string `yaml:"level"`
}

// Paths are the files of one (subject, source) pair
type Paths struct {
	Dir      string
	Matrix   string
	Waytotal string
	Output   string
}

// Default returns the configuration of the 20-40% density recipe
func Default() *Config {
	return &Config{
		Layout: LayoutConfig{
			StatsDir:       filepath.Join("diffusion", "stats"),
			MatrixFile:     "fdt_network_matrix",
			WaytotalFile:   "waytotal",
			OutputFile:     "network_metrics.csv",
			SymmetricDump:  "network_symmetric.npy",
			BinaryDumpStem: "network_binary",
		},
		Sweep: SweepConfig{
			Lower:           60,
			Upper:           80,
			Workers:         0,
			ExcludeDiagonal: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds a Config from defaults, then the YAML file at path (if path is
// not empty), then the environment. A .env file in the working directory is
// loaded first if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.Wrap(err, errors.NotFound, "config", "config file does not exist").WithPath(path)
			}
			return nil, errors.Wrap(err, errors.Config, "config", "failed to read config file").WithPath(path)
		}
		if err := yaml.UnmarshalStrict(data, cfg); err != nil {
			return nil, errors.Wrap(err, errors.Config, "config", "failed to parse config file").WithPath(path)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if root := os.Getenv("NETMETRICS_ROOT"); root != "" {
		c.Root = root
	} else if c.Root == "" {
		c.Root = os.Getenv("DATA")
	}

	if level := os.Getenv("NETMETRICS_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}

	if workers := os.Getenv("NETMETRICS_WORKERS"); workers != "" {
		n, err := strconv.Atoi(workers)
		if err != nil {
			return errors.Wrap(err, errors.Config, "config", "NETMETRICS_WORKERS must be an integer")
		}
		c.Sweep.Workers = n
	}

	return nil
}

// Validate checks the settings a run depends on
func (c *Config) Validate() error {
	if c.Root == "" {
		return errors.New(errors.Config, "config", "data root is not set (config root, NETMETRICS_ROOT or --root)")
	}
	if c.Sweep.Lower < 0 || c.Sweep.Upper > 100 || c.Sweep.Lower > c.Sweep.Upper {
		return errors.New(errors.Config, "config", "threshold range [%d, %d] must satisfy 0 <= lower <= upper <= 100", c.Sweep.Lower, c.Sweep.Upper)
	}
	if c.Sweep.Workers < 0 {
		return errors.New(errors.Config, "config", "workers must not be negative, got %d", c.Sweep.Workers)
	}
	if c.Layout.MatrixFile == "" || c.Layout.WaytotalFile == "" || c.Layout.OutputFile == "" {
		return errors.New(errors.Config, "config", "layout file names must not be empty")
	}

	return nil
}

// Paths resolves the input and output files of a subject and source directory
func (c *Config) Paths(subject string, source string) (Paths, error) {
	if subject == "" || source == "" {
		return Paths{}, errors.New(errors.Config, "config", "subject and source must not be empty")
	}
	for _, part := range []string{subject, source} {
		if part != filepath.Clean(part) || filepath.IsAbs(part) || part == ".." || filepath.Dir(part) == ".." {
			return Paths{}, errors.New(errors.Config, "config", "%q is not a plain relative name", part)
		}
	}

	dir := filepath.Join(c.Root, subject, c.Layout.StatsDir, source)

	return Paths{
		Dir:      dir,
		Matrix:   filepath.Join(dir, c.Layout.MatrixFile),
		Waytotal: filepath.Join(dir, c.Layout.WaytotalFile),
		Output:   filepath.Join(dir, c.Layout.OutputFile),
	}, nil
}
