package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/idilsaglam/tada/internal/cli"
	"github.com/idilsaglam/tada/internal/config"
	"github.com/idilsaglam/tada/internal/logging"
	"github.com/idilsaglam/tada/internal/ui"
)

func main() {
	// Root flags (apply to every subcommand)
	configPath := flag.String("config", "", "config file (default ~/.tada/config.toml)")
	apiURL := flag.String("api", "", "backend base URL")
	timeout := flag.Duration("timeout", 0, "request timeout")
	theme := flag.String("theme", "", "classic, neon or mono")
	noColor := flag.Bool("no-color", false, "disable colours")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = func() { cli.PrintHelp(os.Stderr) }
	flag.Parse()

	// Hand the remaining args to the CLI runner.
	args := flag.Args()
	if len(args) == 0 {
		cli.PrintHelp(os.Stderr)
		os.Exit(cli.ExitUsage)
	}

	o := config.Overrides{
		APIURL:  *apiURL,
		Timeout: *timeout,
		Theme:   *theme,
		NoColor: *noColor,
	}
	if *verbose {
		o.LogLevel = "debug"
	}
	cfg, err := config.Load(*configPath, o)
	if err != nil {
		ui.Fail("config: " + err.Error())
		os.Exit(cli.ExitError)
	}

	opts := logging.DefaultOptions()
	opts.Level = cfg.LogLevel
	logger, err := logging.New(opts)
	if err != nil {
		ui.Fail(err.Error())
		os.Exit(cli.ExitError)
	}

	ui.SetColorForcing(false, cfg.NoColor || os.Getenv("NO_COLOR") != "")
	ui.SetTheme(cfg.Theme)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Run(ctx, args, cli.Options{Config: cfg, Logger: logger})
	stop()
	if code != cli.ExitOK {
		fmt.Fprintln(os.Stderr)
	}
	os.Exit(code)
}
