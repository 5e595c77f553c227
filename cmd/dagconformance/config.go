package main

import (
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"

	"github.com/tos-network/tosdag/infrastructure/logger"
)

type configFlags struct {
	VectorFile string `short:"f" long:"vector" description:"Path to the JSON conformance vector file" required:"true"`
	LogLevel   string `short:"d" long:"loglevel" description:"Logging level {trace, debug, info, warn, error, critical, off}" default:"info"`
	LogFile    string `long:"logfile" description:"Write the log to this rotating file instead of stdout"`
	ErrLogFile string `long:"errlogfile" description:"Write warnings and errors to this rotating file. Defaults to <logfile>_err"`
}

func parseConfig() (*configFlags, error) {
	cfg := &configFlags{}
	parser := flags.NewParser(cfg, flags.HelpFlag|flags.PrintErrors)
	_, err := parser.Parse()
	if err != nil {
		return nil, err
	}

	if _, ok := logger.LevelFromString(cfg.LogLevel); !ok {
		return nil, errors.Errorf("invalid log level %q", cfg.LogLevel)
	}
	if cfg.ErrLogFile == "" && cfg.LogFile != "" {
		cfg.ErrLogFile = cfg.LogFile + "_err"
	}

	return cfg, nil
}
