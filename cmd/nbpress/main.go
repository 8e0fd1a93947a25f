package main

import (
	"github.com/alecthomas/kong"

	"github.com/mskaar/nbpress/cmd/nbpress/commands"
	"github.com/mskaar/nbpress/internal/version"
)

func main() {
	var cli commands.CLI
	global := &commands.Global{}

	ctx := kong.Parse(&cli,
		kong.Name("nbpress"),
		kong.Description("Build a notebook-based documentation site and publish it to a git pages branch"),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)
	ctx.FatalIfErrorf(ctx.Run(global))
}
