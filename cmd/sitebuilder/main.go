package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitebuilder/cmd/sitebuilder/commands"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{}
	parser := kong.Parse(cli,
		kong.Name("sitebuilder"),
		kong.Description("Incremental static site builder for a flat directory of articles, photos and assets."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)

	err := parser.Run(global, cli)
	if err != nil {
		logger := global.Logger
		if logger == nil {
			logger = slog.Default()
		}
		ferrors.NewCLIErrorAdapter(cli.Verbose, logger).HandleError(err)
	}
}
