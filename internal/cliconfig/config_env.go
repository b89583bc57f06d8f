package cliconfig

import "os"

// EnvPrefix is the prefix of every environment variable read by ApplyEnvConfig.
const EnvPrefix = "GLIDERBATCH_"

// ApplyEnvConfig applies GLIDERBATCH_* environment variables to cfg.
// Environment values override the config file but not explicitly set flags.
// Commands are split on whitespace; steps are comma-separated.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	env := func(name string) string { return os.Getenv(EnvPrefix + name) }

	s.setString("root-input-dir", env("ROOT_INPUT_DIR"), &cfg.RootInputDir)
	s.setString("root-output-dir", env("ROOT_OUTPUT_DIR"), &cfg.RootOutputDir)
	s.setString("data-kind", env("DATA_KIND"), &cfg.DataKind)
	s.setString("dataset-tag", env("DATASET_TAG"), &cfg.DatasetTag)
	s.setString("database", env("DATABASE_PATH"), &cfg.DatabasePath)
	s.setString("report-dir", env("REPORT_DIR"), &cfg.ReportDir)
	s.setString("log-file", env("LOG_FILE"), &cfg.LogFile)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setIntFromString("batch-size", env("BATCH_SIZE"), &cfg.BatchSize); err != nil {
		return err
	}
	if err := s.setIntFromString("tail-threshold", env("TAIL_THRESHOLD"), &cfg.TailThreshold); err != nil {
		return err
	}
	if err := s.setIntsFromString("steps", env("STEPS"), &cfg.Steps); err != nil {
		return err
	}

	s.setCommandFromString("step-command", env("STEP_COMMAND"), &cfg.StepCommand)
	s.setCommandFromString("recombine-command", env("RECOMBINE_COMMAND"), &cfg.RecombineCommand)
	s.setCommandFromString("geocode-command", env("GEOCODE_COMMAND"), &cfg.GeocodeCommand)
	s.setCommandFromString("plot-command", env("PLOT_COMMAND"), &cfg.PlotCommand)
	s.setCommandFromString("ingest-command", env("INGEST_COMMAND"), &cfg.IngestCommand)

	s.setBoolFromString("watch", env("WATCH"), &cfg.Watch)
	if err := s.setDuration("debounce", env("DEBOUNCE"), &cfg.Debounce); err != nil {
		return err
	}

	return nil
}
