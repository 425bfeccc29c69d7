package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/five82/scout/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override scout config path (optional)")
	prefsPath := flag.String("prefs", "", "override prefs path (optional)")
	url := flag.String("url", "", "discover URL to open, e.g. '/#?_g=(time:(from:now-1h,to:now))' (optional, defaults to the last one)")
	source := flag.StringP("source", "s", "", "JSON-lines log file to read instead of the configured source")
	poll := flag.Duration("poll", 0, "UI refresh interval (optional, defaults to 250ms)")
	debug := flag.Bool("debug", false, "write debug records to the log file")
	serve := flag.String("serve", "", "serve the source over the log API on this address instead of starting the UI")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		PrefsPath:  *prefsPath,
		URL:        *url,
		Source:     *source,
		PollEvery:  *poll,
		Debug:      *debug,
	}

	if *serve != "" {
		if err := app.Serve(ctx, opts, *serve); err != nil {
			fmt.Fprintf(os.Stderr, "scout: %v\n", err)
			return 1
		}
		return 0
	}

	href, err := app.Run(ctx, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scout: %v\n", err)
		return 1
	}
	if href != "" {
		fmt.Println(href)
	}
	return 0
}
