/*
Formulon evaluates formula-language expressions against variable bindings.

Usage:

	formulon [flags] "<formula>"
	formulon repl
	formulon grammar dump
	formulon grammar conflicts

The flags are:

	--strict
		Surface coercion warnings as errors (default true).

	--unicode-identifiers
		Allow Unicode letters in identifiers and variable names.

	--max-formula-length, --max-ast-nodes, --max-ast-depth, --max-token-length
		Override the corresponding resource limit.

	--format json|text
		Select the output format for a single evaluation (default text).

	--config FILE
		Load flag defaults from a TOML config file before applying flags.

Exit codes: 0 success, 1 syntax error, 2 evaluation error, 3 limit
violation, 4 internal error.
*/
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"

	"github.com/dekarrin/formulon"
	"github.com/dekarrin/formulon/internal/diag"
	"github.com/dekarrin/formulon/internal/eval"
)

var (
	flagStrict         = pflag.Bool("strict", true, "surface coercion warnings as errors")
	flagUnicodeIdents  = pflag.Bool("unicode-identifiers", false, "allow Unicode letters in identifiers")
	flagMaxFormulaLen  = pflag.Int("max-formula-length", 0, "override the maximum formula length (0 = default)")
	flagMaxAstNodes    = pflag.Int("max-ast-nodes", 0, "override the maximum AST node count (0 = default)")
	flagMaxAstDepth    = pflag.Int("max-ast-depth", 0, "override the maximum AST depth (0 = default)")
	flagMaxTokenLength = pflag.Int("max-token-length", 0, "override the maximum token length (0 = default)")
	flagFormat         = pflag.String("format", "text", "output format: json or text")
	flagConfig         = pflag.String("config", "", "path to a TOML config file with flag defaults")
)

// fileConfig mirrors the subset of Options a formulon.toml file may set.
type fileConfig struct {
	Strict             *bool `toml:"strict"`
	UnicodeIdentifiers *bool `toml:"unicode_identifiers"`
	MaxFormulaLength   *int  `toml:"max_formula_length"`
	MaxAstNodes        *int  `toml:"max_ast_nodes"`
	MaxAstDepth        *int  `toml:"max_ast_depth"`
	MaxTokenLength     *int  `toml:"max_token_length"`
}

func main() {
	os.Exit(run())
}

func run() int {
	pflag.Parse()

	opts := formulon.DefaultOptions()
	if *flagConfig != "" {
		if err := applyConfigFile(*flagConfig, &opts); err != nil {
			fmt.Fprintf(os.Stderr, "formulon: %s\n", err)
			return int(diag.CodeLimit)
		}
	}
	applyFlags(&opts)

	args := pflag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "formulon: no subcommand or formula given")
		return int(diag.CodeSyntax)
	}

	switch args[0] {
	case "repl":
		return runRepl(opts)
	case "grammar":
		if len(args) > 1 && args[1] == "dump" {
			return runGrammarDump()
		}
		if len(args) > 1 && args[1] == "conflicts" {
			return runGrammarConflicts()
		}
		if len(args) > 2 && args[1] == "cache" {
			return runGrammarCache(args[2])
		}
		fmt.Fprintln(os.Stderr, "formulon: unknown grammar subcommand")
		return int(diag.CodeSyntax)
	default:
		return runEval(args[0], opts)
	}
}

func applyFlags(opts *formulon.Options) {
	if pflag.CommandLine.Changed("strict") {
		opts.StrictMode = *flagStrict
	}
	if pflag.CommandLine.Changed("unicode-identifiers") {
		opts.AllowUnicodeIdentifiers = *flagUnicodeIdents
	}
	if *flagMaxFormulaLen > 0 {
		opts.MaxFormulaLength = *flagMaxFormulaLen
	}
	if *flagMaxAstNodes > 0 {
		opts.MaxAstNodes = *flagMaxAstNodes
	}
	if *flagMaxAstDepth > 0 {
		opts.MaxAstDepth = *flagMaxAstDepth
	}
	if *flagMaxTokenLength > 0 {
		opts.MaxTokenLength = *flagMaxTokenLength
	}
}

func applyConfigFile(path string, opts *formulon.Options) error {
	var cfg fileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if cfg.Strict != nil {
		opts.StrictMode = *cfg.Strict
	}
	if cfg.UnicodeIdentifiers != nil {
		opts.AllowUnicodeIdentifiers = *cfg.UnicodeIdentifiers
	}
	if cfg.MaxFormulaLength != nil {
		opts.MaxFormulaLength = *cfg.MaxFormulaLength
	}
	if cfg.MaxAstNodes != nil {
		opts.MaxAstNodes = *cfg.MaxAstNodes
	}
	if cfg.MaxAstDepth != nil {
		opts.MaxAstDepth = *cfg.MaxAstDepth
	}
	if cfg.MaxTokenLength != nil {
		opts.MaxTokenLength = *cfg.MaxTokenLength
	}
	return nil
}

func runEval(formula string, opts formulon.Options) int {
	result := formulon.Evaluate(formula, eval.Bindings{}, opts)
	printResult(result)
	if len(result.Errors) > 0 {
		return int(diag.ExitCode(result.Errors[0]))
	}
	return int(diag.CodeSuccess)
}

func printResult(result formulon.Result) {
	if *flagFormat == "json" {
		printResultJSON(result)
		return
	}

	if len(result.Errors) > 0 {
		for _, err := range result.Errors {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		}
		return
	}
	fmt.Println(result.Value.String())
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "WARNING: %s: %s\n", w.Kind, w.Message)
	}
}

func printResultJSON(result formulon.Result) {
	payload := map[string]any{
		"requestId":      result.RequestID,
		"executionNanos": result.ExecutionNanos,
	}
	if len(result.Errors) > 0 {
		errs := make([]string, len(result.Errors))
		for i, err := range result.Errors {
			errs[i] = err.Error()
		}
		payload["errors"] = errs
	} else {
		payload["value"] = result.Value.String()
	}
	if len(result.Warnings) > 0 {
		warnings := make([]string, len(result.Warnings))
		for i, w := range result.Warnings {
			warnings[i] = string(w.Kind) + ": " + w.Message
		}
		payload["warnings"] = warnings
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

func runGrammarDump() int {
	dump, err := formulon.DumpGrammar()
	if err != nil {
		fmt.Fprintf(os.Stderr, "formulon: %s\n", err)
		return int(diag.CodeInternal)
	}
	fmt.Println(dump)
	return int(diag.CodeSuccess)
}

// runGrammarConflicts prints every shift/reduce and reduce/reduce conflict
// found while building the ACTION/GOTO table, resolved or not.
func runGrammarConflicts() int {
	dump, err := formulon.DumpConflicts()
	if err != nil {
		fmt.Fprintf(os.Stderr, "formulon: %s\n", err)
		return int(diag.CodeInternal)
	}
	fmt.Println(dump)
	return int(diag.CodeSuccess)
}

// runGrammarCache writes the compiled ACTION/GOTO table to path in rezi's
// binary format, so a later process can load it instead of rebuilding the
// grammar from scratch.
func runGrammarCache(path string) int {
	data, err := formulon.CacheTable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "formulon: %s\n", err)
		return int(diag.CodeInternal)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "formulon: write cache: %s\n", err)
		return int(diag.CodeInternal)
	}
	return int(diag.CodeSuccess)
}
