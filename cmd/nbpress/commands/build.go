package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/mskaar/nbpress/internal/site"
)

// BuildCmd implements the 'build' command: the full pipeline from notebook
// preprocessing through publication and cleanup.
type BuildCmd struct {
	NoPublish         bool `help:"Build and verify only, leave the hosting branch untouched"`
	KeepIntermediates bool `help:"Skip the clean stage, keeping build intermediates for inspection"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	builder, closer, err := newBuilder(cfg, nil)
	if err != nil {
		return err
	}
	defer closer()

	_, err = builder.Run(ctx, site.Options{
		SkipPublish: b.NoPublish,
		SkipClean:   b.KeepIntermediates,
	})
	return err
}
