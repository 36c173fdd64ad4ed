package main

import (
	"context"
	"fmt"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffval"

	"github.com/logward-dev/logward-go"
	"github.com/logward-dev/logward-go/internal/logwardutil"
)

type statsConfig struct {
	*rootConfig

	from     string
	to       string
	interval time.Duration
	service  string
}

func (cfg *statsConfig) register(fs *ff.FlagSet) {
	fs.AddFlag(ff.FlagConfig{ShortName: 0x0, LongName: "from" /*     */, Value: ffval.NewValue(&cfg.from) /*                              */, Usage: "start of the time range, RFC3339 or a duration ago (required)", Placeholder: "TIME"})
	fs.AddFlag(ff.FlagConfig{ShortName: 0x0, LongName: "to" /*       */, Value: ffval.NewValueDefault(&cfg.to, "0s") /*                   */, Usage: "end of the time range, RFC3339 or a duration ago", Placeholder: "TIME"})
	fs.AddFlag(ff.FlagConfig{ShortName: 0x0, LongName: "interval" /* */, Value: ffval.NewValueDefault(&cfg.interval, time.Minute) /*      */, Usage: "bucketing interval"})
	fs.AddFlag(ff.FlagConfig{ShortName: 's', LongName: "service" /*  */, Value: ffval.NewValue(&cfg.service) /*                           */, Usage: "restrict stats to one service", Placeholder: "NAME"})
}

func (cfg *statsConfig) Exec(ctx context.Context, args []string) error {
	if cfg.from == "" {
		return fmt.Errorf("--from is required")
	}

	from, err := parseTime(cfg.from)
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}

	to, err := parseTime(cfg.to)
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}

	apis, err := cfg.apis()
	if err != nil {
		return err
	}

	req := logward.StatsRequest{
		From:     from,
		To:       to,
		Interval: cfg.interval,
		Service:  cfg.service,
	}

	cfg.log.V(1).Info("request", "from", from, "to", to, "interval", logwardutil.HumanizeDuration(cfg.interval), "service", cfg.service)

	type section struct {
		Endpoint string                 `json:"endpoint"`
		Stats    *logward.StatsResponse `json:"stats,omitempty"`
		Error    string                 `json:"error,omitempty"`
	}

	enc := cfg.newEncoder()
	var lastErr error
	for i := range apis {
		res, err := apis[i].Stats(ctx, req)
		s := section{Endpoint: cfg.uris[i], Stats: res}
		if err != nil {
			s.Error = err.Error()
			lastErr = fmt.Errorf("%s: %w", cfg.uris[i], err)
		}
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encode stats: %w", err)
		}
	}

	return lastErr
}
