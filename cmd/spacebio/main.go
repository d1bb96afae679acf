// Command spacebio extracts a knowledge graph from space biology papers and
// answers questions against it.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	spacebio "github.com/Wasifzf/Space-Bio-Knowledge-Engine"
	"github.com/Wasifzf/Space-Bio-Knowledge-Engine/store"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	// Development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "extract":
		err = cmdExtract(args)
	case "query":
		err = cmdQuery(args)
	case "stats":
		err = cmdStats(args)
	case "export":
		err = cmdExport(args)
	case "paths":
		err = cmdPaths(args)
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		usage()
		os.Exit(2)
	}
	if err != nil {
		slog.Error("command failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `spacebio - space biology knowledge graph engine

Usage:
  spacebio extract [flags]          Extract triples from the corpus source
  spacebio query [flags] QUESTION   Answer a question from the graph
  spacebio stats [flags]            Print graph statistics as JSON
  spacebio export [flags]           Write the renderer-agnostic graph export
  spacebio paths [flags] FROM TO    List entity paths between two nodes

Run 'spacebio COMMAND -h' for command flags.
`)
}

// commonOpts are the flags shared by every subcommand.
type commonOpts struct {
	configPath string
	corpus     string
	csv        string
	xlsx       string
	pdfDir     string
	db         string
	textLog    bool
}

func commonFlags(fs *flag.FlagSet) *commonOpts {
	o := &commonOpts{}
	fs.StringVar(&o.configPath, "config", "", "Path to config file (JSON)")
	fs.StringVar(&o.corpus, "corpus", "", "JSON interchange file (papers + triples)")
	fs.StringVar(&o.csv, "csv", "", "CSV manifest of papers")
	fs.StringVar(&o.xlsx, "xlsx", "", "XLSX manifest of papers")
	fs.StringVar(&o.pdfDir, "pdf-dir", "", "Directory of PDF papers")
	fs.StringVar(&o.db, "db", "", "SQLite cache path (empty disables caching)")
	fs.BoolVar(&o.textLog, "text-log", false, "Log as text instead of JSON")
	return o
}

// newEngine builds the engine from config file, environment and flags, in
// that order of precedence.
func newEngine(o *commonOpts) (*spacebio.Engine, spacebio.Config, error) {
	setupLogging(o.textLog)

	cfg, err := spacebio.LoadConfig(o.configPath)
	if err != nil {
		return nil, cfg, err
	}
	cfg.ApplyEnv()

	if o.corpus != "" {
		cfg.CorpusPath = o.corpus
	}
	if o.csv != "" {
		cfg.CSVPath = o.csv
	}
	if o.xlsx != "" {
		cfg.XLSXPath = o.xlsx
	}
	if o.pdfDir != "" {
		cfg.PDFDir = o.pdfDir
	}
	if o.db != "" {
		cfg.DBPath = o.db
	}

	eng, err := spacebio.New(cfg)
	if err != nil {
		return nil, cfg, err
	}
	return eng, cfg, nil
}

// setupLogging sends structured logs to stderr; stdout is reserved for
// command output.
func setupLogging(text bool) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var h slog.Handler
	if text {
		h = slog.NewTextHandler(os.Stderr, opts)
	} else {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}

// signalContext cancels on SIGINT/SIGTERM so long extractions exit cleanly.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	_, err = fmt.Println(string(data))
	return err
}

func cmdExtract(args []string) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	o := commonFlags(fs)
	out := fs.String("out", "", "Output interchange path (defaults to the corpus path)")
	minConf := fs.Float64("min-confidence", 0, "Confidence threshold override")
	noLLM := fs.Bool("no-llm", false, "Rule-based extraction only")
	fs.Parse(args)

	eng, cfg, err := newEngine(o)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, cancel := signalContext()
	defer cancel()

	var opts []spacebio.ExtractOption
	if *minConf > 0 {
		opts = append(opts, spacebio.WithMinConfidence(*minConf))
	}
	if *noLLM {
		opts = append(opts, spacebio.WithoutLLM())
	}

	c, err := eng.Extract(ctx, opts...)
	if err != nil {
		return err
	}

	path := *out
	if path == "" {
		path = cfg.CorpusPath
	}
	if err := store.SaveCorpus(path, c); err != nil {
		return err
	}

	slog.Info("corpus written", "path", path,
		"papers", c.ExtractionInfo.TotalPapers, "triples", c.ExtractionInfo.TotalTriples)
	return nil
}

func cmdQuery(args []string) error {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	o := commonFlags(fs)
	topK := fs.Int("top", 5, "Ranked triples to include in the answer")
	fs.Parse(args)

	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		return fmt.Errorf("usage: spacebio query [flags] QUESTION")
	}

	eng, _, err := newEngine(o)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if err := eng.RebuildIfEmpty(ctx); err != nil {
		return err
	}

	ans, err := eng.Query(ctx, question, spacebio.WithTopK(*topK))
	if err != nil {
		return err
	}
	return printJSON(ans)
}

func cmdStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	o := commonFlags(fs)
	fs.Parse(args)

	eng, _, err := newEngine(o)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if err := eng.RebuildIfEmpty(ctx); err != nil {
		return err
	}
	return printJSON(eng.Statistics())
}

func cmdExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	o := commonFlags(fs)
	out := fs.String("out", "knowledge_graph.json", "Export file path")
	fs.Parse(args)

	eng, _, err := newEngine(o)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if err := eng.RebuildIfEmpty(ctx); err != nil {
		return err
	}

	data, err := json.MarshalIndent(eng.Export(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}

	slog.Info("graph exported", "path", *out)
	return nil
}

func cmdPaths(args []string) error {
	fs := flag.NewFlagSet("paths", flag.ExitOnError)
	o := commonFlags(fs)
	maxLen := fs.Int("max-len", 3, "Maximum path length in hops")
	fs.Parse(args)

	if fs.NArg() != 2 {
		return fmt.Errorf("usage: spacebio paths [flags] FROM TO")
	}
	from, to := fs.Arg(0), fs.Arg(1)

	eng, _, err := newEngine(o)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if err := eng.RebuildIfEmpty(ctx); err != nil {
		return err
	}

	paths := eng.Paths(from, to, *maxLen)
	if paths == nil {
		paths = [][]string{}
	}
	return printJSON(paths)
}
