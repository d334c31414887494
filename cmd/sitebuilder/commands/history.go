package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" help:"Number of cycles to show" default:"20"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return ferrors.ConfigError("history.path is not configured").UserAction().Build()
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return ferrors.StorageError("failed to open build history").
			WithCause(err).
			WithContext("path", cfg.History.Path).
			Build()
	}
	defer func() { _ = store.Close() }()

	entries, err := store.Recent(context.Background(), h.Limit)
	if err != nil {
		return ferrors.StorageError("failed to read build history").WithCause(err).Build()
	}
	return PrintHistory(os.Stdout, entries, time.Now())
}

// PrintHistory writes entries as an aligned table.
func PrintHistory(w io.Writer, entries []history.Entry, now time.Time) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No build cycles recorded")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tTRIGGER\tSTATUS\tSCANNED\tSELECTED\tFAILED\tDURATION\tERROR")
	for _, e := range entries {
		trigger := e.Trigger
		if e.Force {
			trigger += " (forced)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			humanize.RelTime(e.StartedAt, now, "ago", "from now"),
			trigger, e.Status, e.Scanned, e.Selected, e.Failed,
			e.Duration().Round(time.Millisecond), e.Error)
	}
	return tw.Flush()
}
