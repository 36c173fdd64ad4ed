package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffval"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/logward-dev/logward-go"
	"github.com/logward-dev/logward-go/logwardhttp"
)

type rootConfig struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	uris     []string
	apiKey   string
	logLevel string
	output   string

	service string
	level   string
	from    string
	to      string
	query   string

	filter logward.Filter
	log    logr.Logger
}

func (cfg *rootConfig) registerBaseFlags(fs *ff.FlagSet) {
	fs.AddFlag(ff.FlagConfig{
		ShortName:   'u',
		LongName:    "api-url",
		Value:       ffval.NewUniqueList(&cfg.uris),
		Usage:       "API endpoint URL e.g. 'https://api.logward.dev' (repeatable)",
		Placeholder: "URL",
	})
	fs.AddFlag(ff.FlagConfig{
		ShortName:   'k',
		LongName:    "api-key",
		Value:       ffval.NewValue(&cfg.apiKey),
		Usage:       "API key, also read from LOGWARD_API_KEY",
		Placeholder: "KEY",
	})
	fs.AddFlag(ff.FlagConfig{
		ShortName:   'l',
		LongName:    "log-level",
		Value:       ffval.NewEnum(&cfg.logLevel, "info", "i", "debug", "d", "none", "n"),
		Usage:       "log level: i/info, d/debug, n/none",
		Placeholder: "LEVEL",
	})
	fs.AddFlag(ff.FlagConfig{
		ShortName:   'o',
		LongName:    "output",
		Value:       ffval.NewEnum(&cfg.output, "json", "prettyjson"),
		Usage:       "output format: json, prettyjson",
		Placeholder: "FORMAT",
	})
}

func (cfg *rootConfig) registerFilterFlags(fs *ff.FlagSet) {
	fs.AddFlag(ff.FlagConfig{
		ShortName:   's',
		LongName:    "service",
		Value:       ffval.NewValue(&cfg.service),
		Usage:       "filter entries by service",
		Placeholder: "NAME",
	})
	fs.AddFlag(ff.FlagConfig{
		LongName:    "level",
		Value:       ffval.NewValue(&cfg.level),
		Usage:       "filter entries by level (DEBUG, INFO, WARN, ERROR, CRITICAL)",
		Placeholder: "LEVEL",
	})
	fs.AddFlag(ff.FlagConfig{
		LongName:    "from",
		Value:       ffval.NewValue(&cfg.from),
		Usage:       "start of the time range, RFC3339 or a duration ago e.g. '1h'",
		Placeholder: "TIME",
	})
	fs.AddFlag(ff.FlagConfig{
		LongName:    "to",
		Value:       ffval.NewValue(&cfg.to),
		Usage:       "end of the time range, RFC3339 or a duration ago e.g. '5m'",
		Placeholder: "TIME",
	})
	fs.AddFlag(ff.FlagConfig{
		ShortName:   'q',
		LongName:    "query",
		Value:       ffval.NewValue(&cfg.query),
		Usage:       "case-insensitive substring match on the message",
		Placeholder: "TEXT",
	})
}

func (cfg *rootConfig) setup() error {
	switch cfg.logLevel {
	case "n", "none":
		cfg.log = logr.Discard()
	default:
		level := zapcore.InfoLevel
		if cfg.logLevel == "d" || cfg.logLevel == "debug" {
			level = zapcore.DebugLevel
		}
		zcfg := zap.NewDevelopmentConfig()
		zcfg.Level = zap.NewAtomicLevelAt(level)
		zlog, err := zcfg.Build()
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		cfg.log = zapr.NewLogger(zlog)
	}

	if len(cfg.uris) <= 0 {
		return fmt.Errorf("at least one API URL is required")
	}

	if strings.TrimSpace(cfg.apiKey) == "" {
		return fmt.Errorf("an API key is required")
	}

	for i, uri := range cfg.uris {
		uri = strings.TrimSpace(uri)
		if !strings.Contains(uri, "://") {
			uri = "http://" + uri
		}
		cfg.uris[i] = uri
		cfg.log.V(1).Info("endpoint", "uri", uri)
	}

	var f logward.Filter
	{
		f.Service = cfg.service
		f.Query = cfg.query

		if cfg.level != "" {
			level, err := logward.ParseLevel(cfg.level)
			if err != nil {
				return err
			}
			f.Level = &level
		}

		if cfg.from != "" {
			t, err := parseTime(cfg.from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			f.From = t
		}

		if cfg.to != "" {
			t, err := parseTime(cfg.to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}
			f.To = t
		}

		if errs := f.Normalize(); len(errs) > 0 {
			return errs[0]
		}
	}
	cfg.filter = f

	return nil
}

// apis builds one transport per configured endpoint.
func (cfg *rootConfig) apis() ([]*logwardhttp.API, error) {
	apis := make([]*logwardhttp.API, 0, len(cfg.uris))
	for _, uri := range cfg.uris {
		api, err := logwardhttp.NewAPI(uri, cfg.apiKey)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", uri, err)
		}
		apis = append(apis, api)
	}
	return apis, nil
}

// parseTime accepts an absolute RFC3339 timestamp or a duration ago, so
// `--from 1h` means one hour before now.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return time.Now().Add(-d), nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q", s)
}
