package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path"
	"strings"
	"time"

	"github.com/hesusruiz/pagedown/config"
	"github.com/hesusruiz/pagedown/highlight"
	"github.com/hesusruiz/pagedown/markdown"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// env is the state shared by the commands: the logger and the configuration
// after flags and environment variables have been applied.
type env struct {
	log *zap.SugaredLogger
	cfg *config.Config
}

// stderrIsTerminal reports whether diagnostics go to an interactive terminal.
func stderrIsTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// newLogger returns a development logger for debugging or interactive use,
// and a production one otherwise. Debug messages are only kept when debug is set.
func newLogger(debug bool) (*zap.SugaredLogger, error) {
	var z *zap.Logger
	var err error

	if debug || stderrIsTerminal() {
		z, err = zap.NewDevelopment()
	} else {
		z, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	if !debug {
		z = z.WithOptions(zap.IncreaseLevel(zap.InfoLevel))
	}
	return z.Sugar(), nil
}

// setup builds the logger and loads the configuration for a command.
func setup(c *cli.Context) (*env, error) {
	// Setup the logging system
	sugar, err := newLogger(c.Bool("debug"))
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	applyFlags(c, cfg)

	sugar.Debugw("configuration loaded", "file", c.String("config"), "markdown", cfg.Markdown)

	return &env{log: sugar, cfg: cfg}, nil
}

// applyFlags overrides the configuration with the flags given on the
// command line or through the environment.
func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("safe") {
		cfg.Markdown.SafeMode = c.Bool("safe")
	}
	if c.IsSet("breaks") {
		cfg.Markdown.BreaksEnabled = c.Bool("breaks")
	}
	if c.IsSet("strict") {
		cfg.Markdown.StrictMode = c.Bool("strict")
	}
	if c.IsSet("escape-markup") {
		cfg.Markdown.MarkupEscaped = c.Bool("escape-markup")
	}
	if c.IsSet("no-link-urls") {
		cfg.Markdown.UrlsLinked = !c.Bool("no-link-urls")
	}
	if c.IsSet("style") {
		cfg.HighlightStyle = c.String("style")
	}
	if c.IsSet("cache") {
		cfg.CacheFile = c.String("cache")
	}
	if c.IsSet("addr") {
		cfg.ServerAddr = c.String("addr")
	}
}

// newParser returns a parser for cfg with the code and diagram renderers installed.
func newParser(cfg *config.Config, log *zap.SugaredLogger) *markdown.Parser {
	mux := highlight.Standard(cfg.HighlightStyle, cfg.HighlightLangs)

	mdcfg := cfg.Markdown
	mdcfg.FenceLanguages = mux.Languages()

	p := markdown.New(mdcfg)
	p.SetFenceRenderer(mux)
	p.SetLogger(log)
	return p
}

// htmlFileName derives the name of the HTML file for an input file.
func htmlFileName(inputFileName string) string {
	ext := path.Ext(inputFileName)
	if len(ext) == 0 {
		return inputFileName + ".html"
	}
	return strings.TrimSuffix(inputFileName, ext) + ".html"
}

// render converts one Markdown file, or the standard input, to HTML.
func render(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	inputFileName := c.Args().First()

	var src []byte
	if inputFileName == "" || inputFileName == "-" {
		src, err = io.ReadAll(os.Stdin)
	} else {
		src, err = os.ReadFile(inputFileName)
	}
	if err != nil {
		return err
	}

	html := newParser(e.cfg, e.log).Render(string(src))

	outputFileName := c.String("output")
	if len(outputFileName) == 0 {
		_, err = fmt.Fprintln(os.Stdout, html)
		return err
	}

	e.log.Infow("writing output", "input", inputFileName, "output", outputFileName)
	return os.WriteFile(outputFileName, []byte(html+"\n"), 0664)
}

// watch re-renders a file every time it is modified, until interrupted.
func watch(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	if !c.Args().Present() {
		return fmt.Errorf("no input file provided")
	}
	inputFileName := c.Args().First()

	outputFileName := c.String("output")
	if len(outputFileName) == 0 {
		outputFileName = htmlFileName(inputFileName)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return processWatch(ctx, inputFileName, outputFileName, newParser(e.cfg, e.log), e.log)
}

// processWatch checks periodically if an input file (inputFileName) has been modified, and if so
// it processes the file and writes the result to the output file (outputFileName)
func processWatch(ctx context.Context, inputFileName string, outputFileName string, p *markdown.Parser, sugar *zap.SugaredLogger) error {

	var oldTimestamp time.Time

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {

		// Get the modified timestamp of the input file
		info, err := os.Stat(inputFileName)
		if err != nil {
			return err
		}

		// If current modified timestamp is newer than the previous timestamp, process the file
		if oldTimestamp.Before(info.ModTime()) {
			oldTimestamp = info.ModTime()

			src, err := os.ReadFile(inputFileName)
			if err != nil {
				return err
			}
			html := p.Render(string(src))
			if err := os.WriteFile(outputFileName, []byte(html+"\n"), 0664); err != nil {
				return err
			}
			sugar.Infow("rendered", "input", inputFileName, "output", outputFileName)
		}

		// Check again in one second
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// commonFlags are accepted by every command.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Value:   config.DefaultFile,
			Usage:   "read configuration from `FILE`",
			EnvVars: []string{"PAGEDOWN_CONFIG"},
		},
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"d"},
			Usage:   "run in debug mode",
			EnvVars: []string{"PAGEDOWN_DEBUG"},
		},
		&cli.BoolFlag{
			Name:    "safe",
			Usage:   "escape raw HTML and neutralize unsafe links",
			EnvVars: []string{"PAGEDOWN_SAFE"},
		},
		&cli.BoolFlag{
			Name:    "breaks",
			Usage:   "turn every newline in a paragraph into a line break",
			EnvVars: []string{"PAGEDOWN_BREAKS"},
		},
		&cli.BoolFlag{
			Name:    "strict",
			Usage:   "require a space after the # of headers",
			EnvVars: []string{"PAGEDOWN_STRICT"},
		},
		&cli.BoolFlag{
			Name:    "escape-markup",
			Usage:   "escape HTML instead of passing it through",
			EnvVars: []string{"PAGEDOWN_ESCAPE_MARKUP"},
		},
		&cli.BoolFlag{
			Name:    "no-link-urls",
			Usage:   "do not turn bare URLs into links",
			EnvVars: []string{"PAGEDOWN_NO_LINK_URLS"},
		},
		&cli.StringFlag{
			Name:    "style",
			Usage:   "highlight code with the chroma `STYLE`",
			EnvVars: []string{"PAGEDOWN_STYLE"},
		},
	}
}

func outputFlag(usage string) cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   usage,
	}
}

func main() {
	sugar, err := newLogger(false)
	if err != nil {
		panic(err)
	}
	defer sugar.Sync()

	// Variables in a .env file behave as if they were set in the environment
	if err := config.LoadEnv(); err != nil {
		sugar.Warnw("cannot load .env", "error", err)
	}

	app := &cli.App{
		Name:     "pagedown",
		Version:  "v0.1.0",
		Compiled: time.Now(),
		Authors: []*cli.Author{
			{
				Name:  "Jesus Ruiz",
				Email: "hesus.ruiz@gmail.com",
			},
		},
		Usage: "render Markdown documents and serve a directory of them",
		Commands: []*cli.Command{
			{
				Name:      "render",
				Usage:     "render a Markdown file to HTML",
				ArgsUsage: "[FILE] (default is the standard input)",
				Action:    render,
				Flags:     append(commonFlags(), outputFlag("write html to `FILE` (default is the standard output)")),
			},
			{
				Name:      "watch",
				Usage:     "render a Markdown file every time it changes",
				ArgsUsage: "FILE",
				Action:    watch,
				Flags:     append(commonFlags(), outputFlag("write html to `FILE` (default is input file name with extension .html)")),
			},
			{
				Name:      "build",
				Usage:     "render every document of a content directory",
				ArgsUsage: "[DIR] (default is content.dir from the configuration)",
				Action:    build,
				Flags: append(commonFlags(),
					outputFlag("write the pages to `DIR`"),
					cacheFlag(),
				),
			},
			{
				Name:      "serve",
				Usage:     "serve a content directory over HTTP",
				ArgsUsage: "[DIR] (default is content.dir from the configuration)",
				Action:    serve,
				Flags: append(commonFlags(),
					cacheFlag(),
					&cli.StringFlag{
						Name:    "addr",
						Usage:   "listen on `ADDRESS`",
						EnvVars: []string{"PAGEDOWN_ADDR"},
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		sugar.Errorw("command failed", "command", commandName(os.Args), "error", err)
		sugar.Sync()
		os.Exit(1)
	}

}

func cacheFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "cache",
		Usage:   "keep the document index in the database `FILE`",
		EnvVars: []string{"PAGEDOWN_CACHE"},
	}
}

// commandName returns the first non-flag argument, which names the command.
func commandName(args []string) string {
	for _, a := range args[1:] {
		if !strings.HasPrefix(a, "-") {
			return a
		}
	}
	return ""
}
