package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	RootInputDir     string   `toml:"root_input_dir"`
	RootOutputDir    string   `toml:"root_output_dir"`
	BatchSize        int      `toml:"batch_size"`
	TailThreshold    int      `toml:"tail_threshold"`
	DataKind         string   `toml:"data_kind"`
	Steps            []int    `toml:"steps"`
	DatasetTag       string   `toml:"dataset_tag"`
	StepCommand      []string `toml:"step_command"`
	RecombineCommand []string `toml:"recombine_command"`
	GeocodeCommand   []string `toml:"geocode_command"`
	PlotCommand      []string `toml:"plot_command"`
	IngestCommand    []string `toml:"ingest_command"`
	DatabasePath     string   `toml:"database_path"`
	ReportDir        string   `toml:"report_dir"`
	LogFile          string   `toml:"log_file"`
	LogLevel         string   `toml:"log_level"`
	Watch            *bool    `toml:"watch"`
	Debounce         string   `toml:"debounce"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.gliderbatch/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".gliderbatch", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("root-input-dir", fc.RootInputDir, &cfg.RootInputDir)
	s.setString("root-output-dir", fc.RootOutputDir, &cfg.RootOutputDir)
	s.setString("data-kind", fc.DataKind, &cfg.DataKind)
	s.setString("dataset-tag", fc.DatasetTag, &cfg.DatasetTag)
	s.setString("database", fc.DatabasePath, &cfg.DatabasePath)
	s.setString("report-dir", fc.ReportDir, &cfg.ReportDir)
	s.setString("log-file", fc.LogFile, &cfg.LogFile)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	s.setInt("batch-size", fc.BatchSize, &cfg.BatchSize)
	s.setInt("tail-threshold", fc.TailThreshold, &cfg.TailThreshold)
	s.setInts("steps", fc.Steps, &cfg.Steps)

	s.setStrings("step-command", fc.StepCommand, &cfg.StepCommand)
	s.setStrings("recombine-command", fc.RecombineCommand, &cfg.RecombineCommand)
	s.setStrings("geocode-command", fc.GeocodeCommand, &cfg.GeocodeCommand)
	s.setStrings("plot-command", fc.PlotCommand, &cfg.PlotCommand)
	s.setStrings("ingest-command", fc.IngestCommand, &cfg.IngestCommand)

	s.setBool("watch", fc.Watch, &cfg.Watch)
	if err := s.setDuration("debounce", fc.Debounce, &cfg.Debounce); err != nil {
		return err
	}

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
