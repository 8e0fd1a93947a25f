package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mskaar/nbpress/internal/publish"
)

// PublishCmd pushes an already generated HTML tree to the hosting branch
// without rebuilding.
type PublishCmd struct{}

func (p *PublishCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.Publish.Enabled {
		return fmt.Errorf("publishing is disabled in configuration")
	}

	htmlDir := cfg.HTMLDir()
	if _, err := os.Stat(htmlDir); err != nil {
		return fmt.Errorf("no generated site at %s, run a build first", htmlDir)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	publisher := publish.New(cfg.Publish, nil)
	summary, err := publisher.Publish(ctx, htmlDir)
	if err != nil {
		return err
	}
	fmt.Printf("Published %s to %s (%s)\n", htmlDir, summary.Branch, summary.Commit)
	return nil
}
