// Package main provides a standalone linter for TAML markup files.
// It runs the same parse pipeline as `taml lint` for environments that
// only need diagnostics.
//
// Usage:
//
//	taml-lint [--json] <file>...
//
// Prefer using `taml lint` instead of this standalone binary.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/suin/go-taml/core/errors"
	"github.com/suin/go-taml/core/taml"
	"github.com/suin/go-taml/internal/corpus"
)

// result is the outcome for one linted file.
type result struct {
	File    string           `json:"file"`
	OK      bool             `json:"ok"`
	Error   *taml.ParseError `json:"error,omitempty"`
	Message string           `json:"message,omitempty"`
}

func main() {
	jsonOut := flag.Bool("json", false, "Output results as JSON")
	flag.Usage = printUsage
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		printUsage()
		os.Exit(1)
	}

	results, failed := lintFiles(paths)

	if *jsonOut {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to serialize results: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
	} else {
		for _, r := range results {
			printResult(r)
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

// lintFiles parses each path and returns per-file results plus the
// failure count.
func lintFiles(paths []string) ([]result, int) {
	results := make([]result, 0, len(paths))
	failed := 0

	for _, path := range paths {
		r := result{File: path, OK: true}

		data, err := corpus.Load(path)
		if err == nil {
			_, err = taml.Parse(string(data))
		}
		if err != nil {
			r.OK = false
			failed++

			var parseErr *taml.ParseError
			if errors.As(err, &parseErr) {
				r.Error = parseErr
				r.Message = parseErr.Error()
			} else {
				r.Message = err.Error()
			}
		}

		results = append(results, r)
	}

	return results, failed
}

func printResult(r result) {
	if r.OK {
		fmt.Printf("%s: ok\n", r.File)
		return
	}
	msg := r.Message
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		fmt.Printf("%s: %s\n  %s\n", r.File, msg[:i], msg[i+1:])
	} else {
		fmt.Printf("%s: %s\n", r.File, msg)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: taml-lint [--json] <file>...\n\n")
	fmt.Fprintf(os.Stderr, "Checks TAML markup files for parse errors.\n")
	fmt.Fprintf(os.Stderr, "Prefer `taml lint` unless you need a standalone binary.\n")
}
