package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mskaar/nbpress/internal/lint"
)

// LintCmd implements the 'lint' command.
type LintCmd struct {
	Format string `short:"f" default:"text" help:"Output format (text or json)" enum:"text,json"`
	Path   string `arg:"" optional:"" help:"Content directory to lint (defaults to configured content dir)"`
}

func (l *LintCmd) Run(_ *Global, root *CLI) error {
	path := l.Path
	if path == "" {
		cfg, err := loadConfig(root)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		path = cfg.Content.Dir
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("content directory does not exist: %s", path)
	}

	result, err := lint.New(path).Run()
	if err != nil {
		return err
	}

	switch l.Format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	default:
		for _, f := range result.Findings {
			fmt.Printf("%s: %s: %s\n", f.File, f.Rule, f.Message)
		}
		fmt.Printf("%d files scanned, %d problems\n", result.FilesScanned, len(result.Findings))
	}

	if !result.Clean() {
		return fmt.Errorf("lint found %d problems", len(result.Findings))
	}
	return nil
}
