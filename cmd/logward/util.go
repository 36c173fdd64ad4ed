package main

import (
	"context"
	"encoding/json"
	"time"
)

func contextSleep(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

func (cfg *rootConfig) newEncoder() *json.Encoder {
	enc := json.NewEncoder(cfg.stdout)
	if cfg.output == "prettyjson" {
		enc.SetIndent("", "    ")
	}
	return enc
}
