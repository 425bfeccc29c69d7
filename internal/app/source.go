package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/five82/scout/internal/config"
	"github.com/five82/scout/internal/dataaccess"
	"github.com/five82/scout/internal/logsource"
	"github.com/five82/scout/internal/state"
)

// openSource picks the record source: a JSON-lines file when one is
// configured or passed in, the HTTP log API otherwise. The returned label
// is shown in the UI header.
func openSource(cfg config.Config, override string, logger *slog.Logger) (dataaccess.Fetcher, string, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	path := strings.TrimSpace(override)
	if path == "" {
		path = cfg.SourceFile
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, "", fmt.Errorf("open source: %w", err)
		}
		src := logsource.NewFileSource(path,
			logsource.WithMaxLines(cfg.MaxLines),
			logsource.WithTimeField(cfg.TimeField),
			logsource.WithFileLogger(logger.With("component", "source")),
		)
		return src, path, nil
	}
	client, err := logsource.NewClient(cfg.APIBind)
	if err != nil {
		return nil, "", fmt.Errorf("init log client: %w", err)
	}
	return client, cfg.APIBind, nil
}

// countingFetcher records every completed fetch in the store so the UI
// can show connectivity. Aborted fetches are not counted.
type countingFetcher struct {
	next  dataaccess.Fetcher
	store *state.Store
}

func (f countingFetcher) FetchChunk(ctx context.Context, req dataaccess.FetchRequest) (dataaccess.FetchResult, error) {
	res, err := f.next.FetchChunk(ctx, req)
	if ctx.Err() != nil || (err != nil && dataaccess.IsAborted(err)) {
		return res, err
	}
	f.store.RecordFetch(err)
	return res, err
}
