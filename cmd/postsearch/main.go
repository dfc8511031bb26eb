// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/poiesic/postsearch"
	"github.com/poiesic/postsearch/config"
	"github.com/poiesic/postsearch/core"
	"github.com/poiesic/postsearch/corpus"
	"github.com/poiesic/postsearch/search"
	"github.com/poiesic/postsearch/storage"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

const (
	msgIndexNotFound = "Index not found. Please generate the index first."
	msgNoResults     = "No results found."
	msgSearchUsage   = "Usage: postsearch search <query>"

	defaultConfigFile = "postsearch.yaml"
)

// newEngine is replaced in tests to inject a mock provider.
var newEngine = postsearch.NewEngine

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "postsearch",
		Usage: "Semantic search over MDX blog posts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML or TOML configuration file",
				EnvVars: []string{"POSTSEARCH_CONFIG"},
			},
		},
		HideHelpCommand: true,
		Before:          setupLogger,
		Action:          unknownCommand,
		Commands:        []*cli.Command{
			{
				Name:   "generate",
				Usage:  "Build the search index from the corpus",
				Action: generateCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "corpus",
						Usage: "Directory containing .mdx posts",
					},
					&cli.StringFlag{
						Name:  "model",
						Usage: "Embedding model name",
					},
					&cli.StringFlag{
						Name:  "host",
						Usage: "Embedding service host URL",
					},
					&cli.StringFlag{
						Name:  "provider",
						Usage: "Embedding provider (openai, ollama)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent embedding requests",
					},
					&cli.BoolFlag{
						Name:  "no-cache",
						Usage: "Embed every document even if a cached vector exists",
					},
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "Rebuild the index whenever a post changes",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Find the posts most similar to a query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Maximum number of results",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print results as JSON",
					},
				},
			},
		},
	}
}

// unknownCommand runs when no subcommand matched.
func unknownCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		if err := cli.ShowAppHelp(c); err != nil {
			return err
		}
		return cli.Exit("", 1)
	}
	return cli.Exit(fmt.Sprintf("Unknown command: %s", c.Args().First()), 1)
}

func generateCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	applyGenerateFlags(c, cfg)

	opts := []postsearch.EngineOption{postsearch.WithLogger(slog.Default())}
	if c.Bool("no-cache") {
		opts = append(opts, postsearch.WithoutCache())
	}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		opts = append(opts, postsearch.WithProgress(os.Stderr))
	}

	engine, err := newEngine(cfg, opts...)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rebuild := func(ctx context.Context) error {
		snap, err := engine.Generate(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Index generated successfully on %d files.\n", snap.Len())
		return nil
	}

	if err := rebuild(ctx); err != nil {
		return err
	}
	if !c.Bool("watch") {
		return nil
	}
	return watchCorpus(ctx, cfg.CorpusRoot, watchDebounce, rebuild, slog.Default())
}

func applyGenerateFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("corpus") {
		cfg.CorpusRoot = c.String("corpus")
	}
	if c.IsSet("model") {
		cfg.Embedding.Model = c.String("model")
	}
	if c.IsSet("host") {
		cfg.Embedding.Host = c.String("host")
	}
	if c.IsSet("provider") {
		cfg.Embedding.Provider = c.String("provider")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
}

func searchCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit(msgSearchUsage, 1)
	}
	query := strings.Join(c.Args().Slice(), " ")

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("top-k") {
		cfg.TopK = c.Int("top-k")
	}

	engine, err := newEngine(cfg,
		postsearch.WithLogger(slog.Default()),
		postsearch.WithSearchMonitor(search.NewLoggingMonitor(slog.Default())),
	)
	if err != nil {
		return err
	}
	defer engine.Close()

	results, err := engine.Search(c.Context, query, 0)
	if errors.Is(err, storage.ErrIndexNotFound) {
		return cli.Exit(msgIndexNotFound, 1)
	}
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return printJSON(c.App.Writer, results)
	}
	printResults(c.App.Writer, results)
	return nil
}

func printResults(w io.Writer, results []core.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, msgNoResults)
		return
	}
	fmt.Fprintln(w, "Search results:")
	for _, r := range results {
		fmt.Fprintf(w, "%s (%s): %.4f\n", r.Record.Title, r.Record.Filename, r.Score)
	}
}

type jsonResult struct {
	Title    string  `json:"title"`
	Filename string  `json:"filename"`
	Slug     string  `json:"slug"`
	Score    float32 `json:"score"`
}

func printJSON(w io.Writer, results []core.SearchResult) error {
	out := make([]jsonResult, len(results))
	for i, r := range results {
		out[i] = jsonResult{
			Title:    r.Record.Title,
			Filename: r.Record.Filename,
			Slug:     corpus.Slug(r.Record.Filename),
			Score:    r.Score,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// loadConfig reads the configuration over the defaults. A file named with
// --config or POSTSEARCH_CONFIG must exist; otherwise defaultConfigFile is
// used when present. The log level from the file applies unless --log-level
// was given.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if c.IsSet("config") {
		if err := config.Load(c.String("config"), cfg); err != nil {
			return nil, err
		}
	} else if err := config.LoadOptional(defaultConfigFile, cfg); err != nil {
		return nil, err
	}
	if !c.IsSet("log-level") && cfg.LogLevel != "" {
		installLogger(cfg.SlogLevel())
	}
	return cfg, nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	installLogger(level)
	return nil
}

func installLogger(level slog.Level) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}
