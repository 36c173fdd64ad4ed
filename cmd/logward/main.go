// logward is a CLI tool for interacting with the Logward API: searching
// and tailing logs, fetching aggregated stats, and shipping entries from
// stdin.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/oklog/run"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
)

func main() {
	var (
		ctx    = context.Background()
		stdin  = os.Stdin
		stdout = os.Stdout
		stderr = os.Stderr
		args   = os.Args[1:]
	)
	err := exec(ctx, stdin, stdout, stderr, args)
	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.As(err, &(run.SignalError{})):
		os.Exit(0)
	case err != nil:
		fmt.Fprintf(stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func exec(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) (err error) {
	rootConfig := &rootConfig{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}

	rootFlags := ff.NewFlagSet("base")
	rootConfig.registerBaseFlags(rootFlags)

	filterFlags := ff.NewFlagSet("filter").SetParent(rootFlags)
	rootConfig.registerFilterFlags(filterFlags)

	rootCommand := &ff.Command{
		Name:      "logward",
		ShortHelp: "interact with one or more Logward API endpoints",
		Flags:     rootFlags,
	}

	// Config for `logward search`.
	searchConfig := &searchConfig{rootConfig: rootConfig}
	searchFlags := ff.NewFlagSet("search").SetParent(filterFlags)
	searchConfig.register(searchFlags)
	searchCommand := &ff.Command{
		Name:      "search",
		ShortHelp: "run a single historical query",
		LongHelp:  "Fetch log entries matching the provided filter flags, merged across endpoints.",
		Flags:     searchFlags,
		Exec:      searchConfig.Exec,
	}
	rootCommand.Subcommands = append(rootCommand.Subcommands, searchCommand)

	// Config for `logward tail`.
	tailConfig := &tailConfig{rootConfig: rootConfig}
	tailFlags := ff.NewFlagSet("tail").SetParent(filterFlags)
	tailConfig.register(tailFlags)
	tailCommand := &ff.Command{
		Name:      "tail",
		ShortHelp: "continuously stream matching entries to the terminal",
		Flags:     tailFlags,
		Exec:      tailConfig.Exec,
	}
	rootCommand.Subcommands = append(rootCommand.Subcommands, tailCommand)

	// Config for `logward stats`.
	statsConfig := &statsConfig{rootConfig: rootConfig}
	statsFlags := ff.NewFlagSet("stats").SetParent(rootFlags)
	statsConfig.register(statsFlags)
	statsCommand := &ff.Command{
		Name:      "stats",
		ShortHelp: "fetch aggregated counts over a time range",
		Flags:     statsFlags,
		Exec:      statsConfig.Exec,
	}
	rootCommand.Subcommands = append(rootCommand.Subcommands, statsCommand)

	// Config for `logward send`.
	sendConfig := &sendConfig{rootConfig: rootConfig}
	sendFlags := ff.NewFlagSet("send").SetParent(rootFlags)
	sendConfig.register(sendFlags)
	sendCommand := &ff.Command{
		Name:      "send",
		ShortHelp: "ship NDJSON entries from stdin to the first endpoint",
		LongHelp:  "Read one JSON-encoded entry per line from stdin and ship them through a fully configured client: buffered, batched, and flushed on EOF.",
		Flags:     sendFlags,
		Exec:      sendConfig.Exec,
	}
	rootCommand.Subcommands = append(rootCommand.Subcommands, sendCommand)

	// Print help when appropriate.
	showHelp := true
	defer func() {
		errHelp := errors.Is(err, ff.ErrHelp) || errors.Is(err, ff.ErrNoExec)
		if showHelp || errHelp {
			fmt.Fprintf(stderr, "\n%s\n", ffhelp.Command(rootCommand))
		}
		if errHelp {
			err = nil
		}
	}()

	// Initial parsing.
	if err := rootCommand.Parse(args, ff.WithEnvVarPrefix("LOGWARD")); err != nil {
		return err
	}

	// Validation and set-up.
	if err := rootConfig.setup(); err != nil {
		return err
	}

	// Run errors shouldn't show help by default.
	showHelp = false

	// Run the selected command.
	return rootCommand.Run(ctx)
}
