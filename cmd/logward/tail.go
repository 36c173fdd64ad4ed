package main

import (
	"context"
	"fmt"
	"sync"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffval"

	"github.com/logward-dev/logward-go"
	"github.com/logward-dev/logward-go/internal/logwardutil"
	"github.com/logward-dev/logward-go/logwardhttp"
)

type tailConfig struct {
	*rootConfig

	buffer        int
	retryInterval time.Duration

	entries chan logward.Entry
}

func (cfg *tailConfig) register(fs *ff.FlagSet) {
	fs.AddFlag(ff.FlagConfig{ShortName: 0x0, LongName: "buffer" /*         */, Value: ffval.NewValueDefault(&cfg.buffer, 100) /*                 */, Usage: "local receive buffer size"})
	fs.AddFlag(ff.FlagConfig{ShortName: 0x0, LongName: "retry-interval" /* */, Value: ffval.NewValueDefault(&cfg.retryInterval, time.Second) /* */, Usage: "reconnect interval after a stream failure"})
}

func (cfg *tailConfig) Exec(ctx context.Context, args []string) error {
	cfg.entries = make(chan logward.Entry, cfg.buffer)

	cfg.log.V(1).Info("tailing", "filter", cfg.filter.String(), "buffer", cfg.buffer, "retry_interval", logwardutil.HumanizeDuration(cfg.retryInterval))

	var g run.Group

	{
		ctx, cancel := context.WithCancel(ctx)
		g.Add(func() error {
			return cfg.runStreams(ctx)
		}, func(error) {
			cancel()
		})
	}

	{
		ctx, cancel := context.WithCancel(ctx)
		g.Add(func() error {
			return cfg.writeEntries(ctx)
		}, func(error) {
			cancel()
		})
	}

	{
		g.Add(run.SignalHandler(ctx, syscall.SIGINT, syscall.SIGTERM))
	}

	return g.Run()
}

func (cfg *tailConfig) runStreams(ctx context.Context) error {
	apis, err := cfg.apis()
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for i := range apis {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cfg.runStream(ctx, apis[i], cfg.uris[i])
		}(i)
	}
	wg.Wait()

	return ctx.Err()
}

// runStream maintains one stream connection, reconnecting after failures
// until the context is canceled.
func (cfg *tailConfig) runStream(ctx context.Context, api *logwardhttp.API, uri string) {
	req := logward.StreamRequest{Filter: cfg.filter}
	for ctx.Err() == nil {
		cfg.log.V(1).Info("stream connecting", "uri", uri)
		err := api.Stream(ctx, req, cfg.entries)
		if ctx.Err() != nil {
			return
		}
		cfg.log.Error(err, "stream failed, will reconnect", "uri", uri, "retry_interval", logwardutil.HumanizeDuration(cfg.retryInterval))
		contextSleep(ctx, cfg.retryInterval)
	}
}

func (cfg *tailConfig) writeEntries(ctx context.Context) error {
	enc := cfg.newEncoder()
	for {
		select {
		case e := <-cfg.entries:
			if err := enc.Encode(e); err != nil {
				return fmt.Errorf("encode entry: %w", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
