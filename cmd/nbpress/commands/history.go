package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/mskaar/nbpress/internal/history"
)

// HistoryCmd shows recent builds from the history database.
type HistoryCmd struct {
	Limit int `short:"n" default:"20" help:"Maximum number of builds to show"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.History.Enabled {
		return fmt.Errorf("history is disabled in configuration")
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	entries, err := store.Recent(context.Background(), h.Limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No builds recorded yet")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tBUILD\tOUTCOME\tPUBLISHED\tDURATION")
	for _, e := range entries {
		published := "no"
		if e.Published {
			published = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.StartedAt.Format(time.RFC3339), shortID(e.BuildID), e.Outcome, published, e.Duration)
	}
	return w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
