// Package config loads the pagedown configuration file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/hesusruiz/pagedown/markdown"
	"github.com/hesusruiz/vcutils/yaml"
	"github.com/joho/godotenv"
)

// DefaultFile is the configuration file looked up when none is given.
const DefaultFile = "pagedown.yaml"

// Defaults of the keys that are not plain booleans.
const (
	DefaultLangs      = "go|php|js|sql|c"
	DefaultStyle      = "github"
	DefaultContentDir = "content"
	DefaultServerAddr = ":8080"
)

// Config is the application configuration.
type Config struct {
	Markdown markdown.Config

	HighlightLangs []string
	HighlightStyle string

	ContentDir string
	CacheFile  string // empty disables the index cache

	ServerAddr string
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Markdown:       markdown.DefaultConfig(),
		HighlightLangs: splitLangs(DefaultLangs),
		HighlightStyle: DefaultStyle,
		ContentDir:     DefaultContentDir,
		ServerAddr:     DefaultServerAddr,
	}
}

// Load reads the configuration in filename. A missing DefaultFile is not an
// error: the defaults are returned instead.
func Load(filename string) (*Config, error) {
	if filename == "" {
		filename = DefaultFile
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && filename == DefaultFile {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}
	return cfg, nil
}

// Parse builds a configuration from YAML source. Missing keys keep their defaults.
func Parse(src string) (*Config, error) {
	y, err := yaml.ParseYaml(src)
	if err != nil {
		return nil, err
	}

	linkUrls, err := strconv.ParseBool(y.String("markdown.linkUrls", "true"))
	if err != nil {
		return nil, fmt.Errorf("markdown.linkUrls: %w", err)
	}

	cfg := &Config{
		Markdown: markdown.Config{
			BreaksEnabled: y.Bool("markdown.breaks"),
			MarkupEscaped: y.Bool("markdown.escapeMarkup"),
			UrlsLinked:    linkUrls,
			SafeMode:      y.Bool("markdown.safe"),
			StrictMode:    y.Bool("markdown.strict"),
		},
		HighlightLangs: splitLangs(y.String("highlight.langs", DefaultLangs)),
		HighlightStyle: y.String("highlight.style", DefaultStyle),
		ContentDir:     y.String("content.dir", DefaultContentDir),
		CacheFile:      y.String("content.cache", ""),
		ServerAddr:     y.String("server.addr", DefaultServerAddr),
	}

	return cfg, nil
}

// splitLangs splits a "|" separated list of languages.
func splitLangs(s string) []string {
	var langs []string
	for _, l := range strings.Split(s, "|") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, strings.ToLower(l))
		}
	}
	return langs
}

// LoadEnv loads environment variables from the given .env files, or from
// ".env" in the current directory when none is given. Variables already
// set are not overridden, and a missing default file is ignored.
func LoadEnv(filenames ...string) error {
	if len(filenames) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
	}
	return godotenv.Load(filenames...)
}
