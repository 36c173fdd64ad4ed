package main

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffval"

	"github.com/logward-dev/logward-go"
)

type searchConfig struct {
	*rootConfig

	limit  int
	offset int
}

func (cfg *searchConfig) register(fs *ff.FlagSet) {
	fs.AddFlag(ff.FlagConfig{ShortName: 'n', LongName: "limit" /*  */, Value: ffval.NewValueDefault(&cfg.limit, 10) /* */, Usage: "maximum number of entries to return"})
	fs.AddFlag(ff.FlagConfig{ShortName: 0x0, LongName: "offset" /* */, Value: ffval.NewValue(&cfg.offset) /*           */, Usage: "number of entries to skip, per endpoint"})
}

func (cfg *searchConfig) Exec(ctx context.Context, args []string) error {
	apis, err := cfg.apis()
	if err != nil {
		return err
	}

	req := logward.QueryRequest{
		Filter: cfg.filter,
		Limit:  cfg.limit,
		Offset: cfg.offset,
	}

	cfg.log.V(1).Info("request", "filter", cfg.filter.String(), "limit", cfg.limit, "offset", cfg.offset)

	// Query every endpoint concurrently and merge.
	var (
		wg      sync.WaitGroup
		mtx     sync.Mutex
		merged  []logward.Entry
		total   int
		lastErr error
	)
	for i := range apis {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			res, err := apis[i].Query(ctx, req)

			mtx.Lock()
			defer mtx.Unlock()

			if err != nil {
				cfg.log.Error(err, "query failed", "uri", cfg.uris[i])
				lastErr = fmt.Errorf("%s: %w", cfg.uris[i], err)
				return
			}

			cfg.log.V(1).Info("response", "uri", cfg.uris[i], "total", res.Total, "returned", len(res.Logs))
			merged = append(merged, res.Logs...)
			total += res.Total
		}(i)
	}
	wg.Wait()

	if len(merged) == 0 && lastErr != nil {
		return lastErr
	}

	// Newest first, truncated to the requested limit across endpoints.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Time().After(merged[j].Time())
	})
	if len(merged) > cfg.limit {
		merged = merged[:cfg.limit]
	}

	enc := cfg.newEncoder()
	for _, e := range merged {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("encode entry: %w", err)
		}
	}

	cfg.log.V(1).Info("merged", "total", total, "returned", len(merged))

	return nil
}
