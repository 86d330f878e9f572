// Command taml is the CLI tool for the TAML markup engine.
// It provides commands for linting, rendering, converting, and benchmarking.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/suin/go-taml/core/errors"
	"github.com/suin/go-taml/core/golden"
	"github.com/suin/go-taml/core/render"
	"github.com/suin/go-taml/core/selfcheck"
	"github.com/suin/go-taml/core/sgr"
	"github.com/suin/go-taml/core/taml"
	"github.com/suin/go-taml/internal/api"
	"github.com/suin/go-taml/internal/corpus"
	"github.com/suin/go-taml/internal/runstore"
)

const version = "1.0.0"

// CLI defines the command-line interface for taml.
var CLI struct {
	Lint      LintCmd      `cmd:"" help:"Check TAML files for parse errors"`
	Render    RenderCmd    `cmd:"" help:"Render a TAML file through a renderer"`
	Convert   ConvertCmd   `cmd:"" help:"Convert ANSI terminal output to TAML markup"`
	Bench     BenchCmd     `cmd:"" help:"Time parse and render over a corpus directory"`
	Tags      TagsCmd      `cmd:"" help:"List the tag vocabulary with SGR codes"`
	Selfcheck SelfcheckCmd `cmd:"" help:"Run the engine verification suite"`
	API       APICmd       `cmd:"" help:"Start the REST and WebSocket server"`
	Version   VersionCmd   `cmd:"" help:"Print version information"`
}

// LintCmd checks TAML files for parse errors.
type LintCmd struct {
	Paths []string `arg:"" help:"TAML files to check" type:"existingfile"`
	JSON  bool     `help:"Output results as JSON"`
}

// lintResult is the outcome for one linted file. Parse failures carry the
// structured error; read failures carry only the message.
type lintResult struct {
	File    string           `json:"file"`
	OK      bool             `json:"ok"`
	Error   *taml.ParseError `json:"error,omitempty"`
	Message string           `json:"message,omitempty"`
}

func (c *LintCmd) Run() error {
	results := make([]lintResult, 0, len(c.Paths))
	failed := 0

	for _, path := range c.Paths {
		result := lintResult{File: path, OK: true}

		data, err := corpus.Load(path)
		if err == nil {
			_, err = taml.Parse(string(data))
		}
		if err != nil {
			result.OK = false
			failed++

			var parseErr *taml.ParseError
			if errors.As(err, &parseErr) {
				result.Error = parseErr
				result.Message = parseErr.Error()
			} else {
				result.Message = err.Error()
			}
		}

		results = append(results, result)
	}

	if c.JSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize results: %w", err)
		}
		fmt.Println(string(data))
	} else {
		for _, result := range results {
			if result.OK {
				fmt.Printf("%s: ok\n", result.File)
				continue
			}
			// A diagnostic's "Expected:" line moves to an indented
			// continuation under the file name.
			msg := result.Message
			if i := strings.IndexByte(msg, '\n'); i >= 0 {
				fmt.Printf("%s: %s\n  %s\n", result.File, msg[:i], msg[i+1:])
			} else {
				fmt.Printf("%s: %s\n", result.File, msg)
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d file(s) failed", failed)
	}
	return nil
}

// RenderCmd renders a TAML file through a registered renderer.
type RenderCmd struct {
	Path string `arg:"" help:"TAML file to render" type:"existingfile"`
	To   string `help:"Target renderer" default:"ansi"`
	Out  string `help:"Output path (default: stdout)" type:"path"`
}

func (c *RenderCmd) Run() error {
	data, err := corpus.Load(c.Path)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	doc, err := taml.Parse(string(data))
	if err != nil {
		return fmt.Errorf("%s: %w", c.Path, err)
	}

	output, err := render.Render(c.To, doc)
	if err != nil {
		return fmt.Errorf("failed to render: %w", err)
	}

	if c.Out == "" {
		os.Stdout.Write(output)
		return nil
	}

	if err := os.WriteFile(c.Out, output, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	fmt.Printf("Rendered: %s\n", c.Path)
	fmt.Printf("  Renderer: %s\n", c.To)
	fmt.Printf("  Output: %s (%d bytes)\n", c.Out, len(output))
	return nil
}

// ConvertCmd converts legacy ANSI terminal output to TAML markup.
type ConvertCmd struct {
	Path string `arg:"" help:"File containing ANSI escape sequences" type:"existingfile"`
	Out  string `help:"Output path (default: stdout)" type:"path"`
}

func (c *ConvertCmd) Run() error {
	data, err := corpus.Load(c.Path)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	markup, err := sgr.Convert(string(data))
	if err != nil {
		return fmt.Errorf("%s: %w", c.Path, err)
	}

	if c.Out == "" {
		fmt.Print(markup)
		return nil
	}

	if err := os.WriteFile(c.Out, []byte(markup), 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	fmt.Printf("Converted: %s\n", c.Path)
	fmt.Printf("  Output: %s (%d bytes)\n", c.Out, len(markup))
	return nil
}

// BenchCmd times parse and render over a corpus directory, optionally
// recording runs to a SQLite history and pinning output hashes.
type BenchCmd struct {
	Dir        string `arg:"" help:"Corpus directory (.taml and .taml.xz files)" type:"existingdir"`
	Renderer   string `help:"Renderer to time" default:"ansi"`
	Iterations int    `help:"Passes per corpus entry" default:"10"`
	DB         string `help:"Record runs to this SQLite database" type:"path"`
	GoldenDir  string `name:"golden-dir" help:"Golden hash directory for output drift checks" type:"path"`
	Update     bool   `help:"Rewrite golden hashes instead of checking"`
}

func (c *BenchCmd) Run() error {
	if c.Iterations < 1 {
		return fmt.Errorf("iterations must be at least 1")
	}
	if _, err := render.Get(c.Renderer); err != nil {
		return err
	}

	entries, err := corpus.List(c.Dir)
	if err != nil {
		return fmt.Errorf("failed to list corpus: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("no corpus files found in %s", c.Dir)
	}

	var store *runstore.Store
	if c.DB != "" {
		store, err = runstore.Open(c.DB)
		if err != nil {
			return fmt.Errorf("failed to open run store: %w", err)
		}
		defer store.Close()
	}

	var goldens *golden.Store
	if c.GoldenDir != "" {
		goldens, err = golden.NewStore(c.GoldenDir)
		if err != nil {
			return fmt.Errorf("failed to open golden store: %w", err)
		}
	}

	fmt.Printf("TAML Benchmark\n")
	fmt.Printf("  Corpus: %s\n", c.Dir)
	fmt.Printf("  Renderer: %s\n", c.Renderer)
	fmt.Printf("  Iterations: %d\n", c.Iterations)
	fmt.Println()

	passed := 0
	failed := 0
	var failures []string

	for _, name := range entries {
		data, err := corpus.LoadEntry(c.Dir, name)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", name, err)
		}

		parseNS, renderNS, output, err := benchEntry(string(data), c.Renderer, c.Iterations)
		if err != nil {
			fmt.Printf("  [FAIL] %s: %v\n", name, err)
			failed++
			failures = append(failures, fmt.Sprintf("%s: %v", name, err))
			continue
		}

		hash := golden.Hash(output)

		prefix := ""
		if goldens != nil {
			marker, stored, err := checkGolden(goldens, name, hash, c.Update)
			if err != nil {
				return err
			}
			if marker == "[FAIL]" {
				failed++
				failures = append(failures,
					fmt.Sprintf("%s: golden mismatch (expected %s, got %s)", name, stored, hash))
			} else {
				passed++
			}
			prefix = marker + " "
		}

		fmt.Printf("  %s%s: parse %v, render %v (%d bytes)\n",
			prefix, name, time.Duration(parseNS), time.Duration(renderNS), len(data))

		if store != nil {
			run := runstore.Run{
				Corpus:     name,
				Renderer:   c.Renderer,
				InputBytes: int64(len(data)),
				ParseNS:    parseNS,
				RenderNS:   renderNS,
				OutputHash: hash,
			}
			if _, err := store.Record(run); err != nil {
				return fmt.Errorf("failed to record run: %w", err)
			}
		}
	}

	fmt.Println()
	if goldens != nil {
		fmt.Printf("Results: %d passed, %d failed\n", passed, failed)
	} else {
		fmt.Printf("Benchmarked %d corpus file(s)\n", len(entries))
	}
	if store != nil {
		fmt.Printf("Runs recorded to %s\n", c.DB)
	}

	if failed > 0 {
		fmt.Println("\nFailures:")
		for _, f := range failures {
			fmt.Printf("  - %s\n", f)
		}
		return fmt.Errorf("%d corpus file(s) failed", failed)
	}
	return nil
}

// benchEntry runs iterations of parse+render over source and returns the
// mean durations in nanoseconds along with the rendered output.
func benchEntry(source, renderer string, iterations int) (int64, int64, []byte, error) {
	var parseTotal, renderTotal time.Duration
	var output []byte

	for i := 0; i < iterations; i++ {
		start := time.Now()
		doc, err := taml.Parse(source)
		parseTotal += time.Since(start)
		if err != nil {
			return 0, 0, nil, err
		}

		start = time.Now()
		out, err := render.Render(renderer, doc)
		renderTotal += time.Since(start)
		if err != nil {
			return 0, 0, nil, err
		}
		output = out
	}

	n := int64(iterations)
	return parseTotal.Nanoseconds() / n, renderTotal.Nanoseconds() / n, output, nil
}

// checkGolden compares hash against the stored golden entry for name.
// Missing entries are created and reported as new; update mode rewrites
// unconditionally. Returns the marker and the previously stored hash.
func checkGolden(store *golden.Store, name, hash string, update bool) (string, string, error) {
	if update {
		if err := store.Save(name, hash); err != nil {
			return "", "", fmt.Errorf("failed to save golden %s: %w", name, err)
		}
		return "[SAVE]", "", nil
	}

	ok, stored, err := store.Check(name, hash)
	switch {
	case errors.Is(err, errors.ErrNotFound):
		if err := store.Save(name, hash); err != nil {
			return "", "", fmt.Errorf("failed to save golden %s: %w", name, err)
		}
		return "[NEW] ", "", nil
	case err != nil:
		return "", "", fmt.Errorf("failed to check golden %s: %w", name, err)
	case ok:
		return "[PASS]", stored, nil
	}
	return "[FAIL]", stored, nil
}

// TagsCmd lists the tag vocabulary with SGR codes.
type TagsCmd struct {
	JSON bool `help:"Output as JSON"`
}

func (c *TagsCmd) Run() error {
	names := taml.TagNames()
	infos := make([]sgr.Info, 0, len(names))
	for _, name := range names {
		info, ok := sgr.InfoFor(name)
		if !ok {
			return fmt.Errorf("no SGR entry for tag %s", name)
		}
		infos = append(infos, info)
	}

	if c.JSON {
		data, err := json.MarshalIndent(infos, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize tags: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("%-24s %-6s %-6s\n", "TAG", "ENTER", "EXIT")
	fmt.Printf("%-24s %-6s %-6s\n", "---", "-----", "----")
	for _, info := range infos {
		fmt.Printf("%-24s %-6d %-6d\n", info.Tag, info.Enter, info.Exit)
	}
	fmt.Printf("\nTotal: %d tags\n", taml.TagCount)
	return nil
}

// SelfcheckCmd runs the engine verification suite.
type SelfcheckCmd struct {
	JSON bool `help:"Output as JSON"`
}

func (c *SelfcheckCmd) Run() error {
	report := selfcheck.RunAll()

	if c.JSON {
		data, err := report.ToJSON()
		if err != nil {
			return fmt.Errorf("failed to serialize report: %w", err)
		}
		fmt.Println(string(data))
	} else {
		fmt.Printf("Self-Check Report\n")
		fmt.Printf("  Version: %s\n", report.ReportVersion)
		fmt.Printf("  Status: %s\n", report.Status)
		fmt.Printf("  Created: %s\n", report.CreatedAt)
		fmt.Println()
		for _, result := range report.Results {
			status := "[PASS]"
			if result.Status != selfcheck.StatusPass {
				status = "[FAIL]"
			}
			fmt.Printf("  %s %s\n", status, result.Name)
			if result.Detail != "" {
				fmt.Printf("    %s\n", result.Detail)
			}
		}
		fmt.Println()
		if report.Status == selfcheck.StatusPass {
			fmt.Println("All checks passed!")
		} else {
			fmt.Println("Some checks failed.")
		}
	}

	if report.Status != selfcheck.StatusPass {
		return fmt.Errorf("selfcheck failed")
	}
	return nil
}

// APICmd starts the REST and WebSocket server.
type APICmd struct {
	Config    string `help:"TOML config file path" type:"path"`
	Port      int    `help:"HTTP server port (overrides config)"`
	RateLimit int    `name:"rate-limit" help:"Requests per minute per IP (overrides config)"`
	APIKey    string `name:"api-key" help:"Require this API key on non-public endpoints"`
}

func (c *APICmd) Run() error {
	cfg, err := api.LoadConfig(c.Config)
	if err != nil {
		return err
	}

	if c.Port != 0 {
		cfg.Port = c.Port
	}
	if c.RateLimit != 0 {
		cfg.RateLimitRequests = c.RateLimit
	}
	if c.APIKey != "" {
		cfg.Auth.Enabled = true
		cfg.Auth.APIKey = c.APIKey
	}

	return api.Start(cfg)
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("taml version %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("taml"),
		kong.Description("TAML - Terminal ANSI Markup Language toolkit"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
