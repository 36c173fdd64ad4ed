package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffval"

	"github.com/logward-dev/logward-go"
	"github.com/logward-dev/logward-go/logwardhttp"
)

type sendConfig struct {
	*rootConfig

	service   string
	batchSize int
}

func (cfg *sendConfig) register(fs *ff.FlagSet) {
	fs.AddFlag(ff.FlagConfig{ShortName: 's', LongName: "service" /*    */, Value: ffval.NewValue(&cfg.service) /*              */, Usage: "service stamped on entries that carry none", Placeholder: "NAME"})
	fs.AddFlag(ff.FlagConfig{ShortName: 0x0, LongName: "batch-size" /* */, Value: ffval.NewValueDefault(&cfg.batchSize, 100) /* */, Usage: "entries per delivery batch"})
}

// Exec ships NDJSON entries from stdin through a real client, so the full
// SDK path is exercised: buffering, batch flushes, retries, the breaker.
func (cfg *sendConfig) Exec(ctx context.Context, args []string) error {
	api, err := logwardhttp.NewAPI(cfg.uris[0], cfg.apiKey)
	if err != nil {
		return err
	}

	clientConfig := logward.DefaultConfig()
	clientConfig.APIURL = cfg.uris[0]
	clientConfig.APIKey = cfg.apiKey
	clientConfig.BatchSize = cfg.batchSize
	clientConfig.Logger = cfg.log

	client, err := logward.NewClient(clientConfig, api)
	if err != nil {
		return err
	}
	defer client.Close()

	var (
		scanner = bufio.NewScanner(cfg.stdin)
		line    int
		logged  int
		skipped int
	)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line++

		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}

		var e logward.Entry
		if err := json.Unmarshal(text, &e); err != nil {
			cfg.log.Error(err, "skipping unparseable line", "line", line)
			skipped++
			continue
		}

		if e.Service == "" {
			e.Service = cfg.service
		}

		if err := client.Log(ctx, e); err != nil {
			cfg.log.Error(err, "entry rejected", "line", line)
			skipped++
			continue
		}
		logged++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	if err := client.Flush(ctx); err != nil {
		return fmt.Errorf("final flush: %w", err)
	}

	// Give in-flight batch flushes a moment to land in the metrics.
	contextSleep(ctx, 10*time.Millisecond)

	snap := client.Metrics()
	cfg.log.Info("done",
		"read", line,
		"logged", logged,
		"skipped", skipped,
		"sent", snap.LogsSent,
		"dropped", snap.LogsDropped,
		"errors", snap.Errors,
		"retries", snap.Retries,
	)

	if snap.LogsSent == 0 && logged > 0 {
		return fmt.Errorf("no entries delivered (%d errors)", snap.Errors)
	}

	return nil
}
