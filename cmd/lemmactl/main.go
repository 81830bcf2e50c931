package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/logger"
)

const configKey = "config"

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(w io.Writer) *cli.App {
	indexFlag := &cli.StringFlag{
		Name:    "index",
		Aliases: []string{"i"},
		Usage:   "Index file to open (defaults to search.indexPath)",
	}
	return &cli.App{
		Name:   "lemmactl",
		Usage:  "Query and inspect lemma-search index files",
		Writer: w,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   "configs/development.yaml",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:      "query",
				Usage:     "Run standard and phrase queries; interactive when no query is given",
				ArgsUsage: "[query words...]",
				Action:    queryCommand,
				Flags: []cli.Flag{
					indexFlag,
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Results to print per query kind",
						Value:   executor.DefaultLimit,
					},
				},
			},
			{
				Name:   "inspect",
				Usage:  "Print index counters, the most frequent lemmas, or one lemma's postings",
				Action: inspectCommand,
				Flags: []cli.Flag{
					indexFlag,
					&cli.IntFlag{
						Name:  "top",
						Usage: "Number of most frequent lemmas to list",
						Value: 20,
					},
					&cli.StringFlag{
						Name:  "term",
						Usage: "Show the postings of this word (normalized first)",
					},
				},
			},
		},
	}
}

// setup loads the config and routes logs to stderr so results on stdout stay
// readable.
func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	logger.SetupWriter(os.Stderr, c.String("log-level"), "text")
	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]interface{})
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

func appConfig(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configKey].(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

// openIndex loads the index named by --index or the configured path.
func openIndex(c *cli.Context) (*executor.Executor, segment.Header, string, error) {
	path := c.String("index")
	if path == "" {
		path = appConfig(c).Search.IndexPath
	}
	ix, hdr, err := segment.ReadFile(path)
	if err != nil {
		return nil, segment.Header{}, path, fmt.Errorf("opening index: %w", err)
	}
	return executor.New(ix), hdr, path, nil
}
