package main

import (
	"github.com/alecthomas/kingpin/v2"
	"github.com/maxbolgarin/contem"
	"github.com/maxbolgarin/erro"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/revy/internal/app"
	"github.com/maxbolgarin/revy/internal/config"
)

var (
	Version, Branch, Commit, BuildDate string
)

var (
	configPath = kingpin.Flag("config", "path to config file").Short('c').String()
	project    = kingpin.Flag("project", "review open MRs of this project once and exit").Short('p').String()
	recent     = kingpin.Flag("recent", "with --project, only review MRs updated within this window, e.g. 24h").Short('r').Duration()
	verbose    = kingpin.Flag("verbose", "enable debug logging").Short('v').Bool()
)

func main() {
	kingpin.Parse()
	var err error
	ctx := contem.New(contem.WithLogger(logze.DefaultPtr()), contem.Exit(&err))
	defer ctx.Shutdown()
	err = run(ctx)
	if err != nil {
		logze.DefaultPtr().Error("cannot run", "error", err)
	}
}

func run(ctx contem.Context) error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return erro.Wrap(err, "load config")
	}

	level := logze.LevelInfo
	if *verbose {
		level = logze.LevelDebug
	}
	logze.Init(logze.C().WithConsole().WithLevel(level))

	revy, err := app.New(ctx, cfg)
	if err != nil {
		return erro.Wrap(err, "new app")
	}

	if *project != "" {
		if err := revy.RunReview(ctx, *project, *recent); err != nil {
			return erro.Wrap(err, "run review")
		}
		return nil
	}

	if err := revy.StartWebhook(ctx); err != nil {
		return erro.Wrap(err, "start webhook server")
	}

	return nil
}
