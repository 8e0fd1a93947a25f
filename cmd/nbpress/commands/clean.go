package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
)

// CleanCmd runs only the generator's clean step against the configured
// content directory.
type CleanCmd struct{}

func (c *CleanCmd) Run(_ *Global, root *CLI) error {
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

	_, err = builder.Clean(ctx)
	return err
}
