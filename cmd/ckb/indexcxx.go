//go:build cgo

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ckb/internal/config"
	"ckb/internal/cxindex/crashshim"
	"ckb/internal/cxindex/indexer"
	"ckb/internal/cxindex/indexfile"
	"ckb/internal/cxindex/model"
	"ckb/internal/cxindex/snapshot"
	ckberrors "ckb/internal/errors"
	"ckb/internal/logging"
	"ckb/internal/slogutil"
	"ckb/internal/storage"
)

var (
	indexCxxFormat     string
	indexCxxWorkers    int
	indexCxxShowCallee bool
)

var indexCxxCmd = &cobra.Command{
	Use:   "index-cxx <file> [-- clang-args...]",
	Short: "Index a single C/C++ translation unit with the native indexing core",
	Long: `Parses one C/C++ translation unit and prints the resulting per-file
symbol tables as JSON (spec §4.7's indexer façade, driven for one file).

Clang-style compiler arguments (include paths, -std, defines) are passed
after a literal "--".

Examples:
  ckb index-cxx src/widget.cc
  ckb index-cxx src/widget.cc -- -Iinclude -std=c++17`,
	Args: cobra.MinimumNArgs(1),
	Run:  runIndexCxx,
}

func init() {
	indexCxxCmd.Flags().StringVar(&indexCxxFormat, "format", "json", "Output format (json, human)")
	indexCxxCmd.Flags().IntVar(&indexCxxWorkers, "workers", 1, "Worker pool size (only relevant when indexing multiple files)")
	indexCxxCmd.Flags().BoolVar(&indexCxxShowCallee, "show-callees", false, "Include each function's recorded callees in human output")
	rootCmd.AddCommand(indexCxxCmd)
}

func runIndexCxx(cmd *cobra.Command, args []string) {
	start := time.Now()
	logger := newLogger(indexCxxFormat)

	path := args[0]
	clangArgs := args[1:]
	if dashIdx := cmd.ArgsLenAtDash(); dashIdx >= 0 {
		clangArgs = args[dashIdx:]
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
		os.Exit(1)
	}

	repoRoot := mustGetRepoRoot()
	cfg, cfgErr := config.LoadConfig(repoRoot)
	if cfgErr != nil {
		cfg = config.DefaultConfig()
	}
	if !cfg.CxxIndex.Enabled {
		fmt.Fprintln(os.Stderr, "C/C++ indexing is disabled (cxxIndex.enabled = false in .ckb/config.json)")
		os.Exit(1)
	}
	if !cfg.CxxIndex.CrashRecovery {
		os.Setenv(crashshim.EnvVar, "0")
		crashshim.Reload()
	}
	factory := slogutil.NewLoggerFactory(repoRoot, cfg, 0)
	defer func() { _ = factory.Close() }()
	cxxLogger, logErr := factory.CXXIndexLogger()
	if logErr != nil {
		cxxLogger = slogutil.NewDiscardLogger()
	}

	workers := indexCxxWorkers
	if !cmd.Flags().Changed("workers") && cfg.CxxIndex.WorkerCount > 0 {
		workers = cfg.CxxIndex.WorkerCount
	}
	for _, inc := range cfg.CxxIndex.IncludePaths {
		clangArgs = append(clangArgs, "-I"+inc)
	}

	ixCfg := indexer.Config{WorkerCount: workers, Logger: cxxLogger}
	if db, dbErr := storage.Open(repoRoot, logging.NewLogger(logging.Config{Format: logging.HumanFormat, Level: logging.ErrorLevel})); dbErr == nil {
		defer func() { _ = db.Close() }()
		dc := indexer.NewDiskCache(db, cfg.Cache.ViewTtlSeconds)
		ixCfg.Cache = dc.Lookup
		ixCfg.Store = dc.Store
	}

	ix := indexer.New(ixCfg)
	res := ix.Parse(context.Background(), indexer.ParseRequest{
		Path:     path,
		Args:     clangArgs,
		Snapshot: snapshot.New([]snapshot.Buffer{{Path: path, Contents: contents}}),
	})

	if res.Crashed {
		ckbErr := ckberrors.NewCkbError(ckberrors.IndexCrashed,
			fmt.Sprintf("native indexing core crashed while parsing %s", path),
			res.Err, ckberrors.GetSuggestedFixes(ckberrors.IndexCrashed), nil)
		fmt.Fprintln(os.Stderr, ckbErr.Error())
		os.Exit(1)
	}
	if res.Err != nil {
		fmt.Fprintf(os.Stderr, "Error indexing %s: %v\n", path, res.Err)
		os.Exit(1)
	}

	cliResponse := convertIndexCxxResult(res)

	output, err := FormatResponse(cliResponse, OutputFormat(indexCxxFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(output)

	logger.Debug("index-cxx completed",
		"path", path,
		"mainFile", res.MainFile,
		"files", len(res.Files),
		"duration", time.Since(start).Milliseconds(),
	)
}

// IndexCxxResponseCLI is the JSON shape returned by `ckb index-cxx`.
type IndexCxxResponseCLI struct {
	RequestId string            `json:"requestId"`
	MainFile  string            `json:"mainFile"`
	Files     []IndexCxxFileCLI `json:"files"`
}

// IndexCxxFuncCLI is a summarized IndexFunc: its qualified name and
// (optionally, --show-callees) what it was seen to call.
type IndexCxxFuncCLI struct {
	Name    string   `json:"name"`
	Callees []string `json:"callees,omitempty"`
}

// IndexCxxFileCLI summarizes one parsed translation unit's entity counts,
// not the full IndexFile (which can be large and is meant for internal
// consumers, not the CLI's JSON surface).
type IndexCxxFileCLI struct {
	Path     string            `json:"path"`
	Includes []string          `json:"includes"`
	Types    []string          `json:"types"`
	Funcs    []IndexCxxFuncCLI `json:"funcs"`
	Vars     []string          `json:"vars"`
}

func convertIndexCxxResult(res indexer.ParseResult) *IndexCxxResponseCLI {
	files := make([]IndexCxxFileCLI, 0, len(res.Files))
	for path, f := range res.Files {
		entry := IndexCxxFileCLI{Path: path}
		for _, inc := range f.Includes {
			entry.Includes = append(entry.Includes, inc.ResolvedPath)
		}
		for _, t := range f.Types {
			entry.Types = append(entry.Types, t.Def.Name(true))
		}
		for _, fn := range f.Funcs {
			funcEntry := IndexCxxFuncCLI{Name: fn.Def.Name(true)}
			if indexCxxShowCallee {
				for _, c := range fn.Def.Callees {
					funcEntry.Callees = append(funcEntry.Callees, calleeName(f, c))
				}
			}
			entry.Funcs = append(entry.Funcs, funcEntry)
		}
		for _, v := range f.Vars {
			entry.Vars = append(entry.Vars, v.Def.Name(true))
		}
		files = append(files, entry)
	}

	return &IndexCxxResponseCLI{
		RequestId: res.ID,
		MainFile:  res.MainFile,
		Files:     files,
	}
}

// calleeName resolves a recorded call-edge's qualified name by matching the
// callee's raw id against f.Funcs, falling back to the raw id when the
// callee wasn't indexed as a func in this file (e.g. an unresolved call).
func calleeName(f *indexfile.IndexFile, c model.SymbolRef) string {
	if c.Kind == model.SymbolFunc {
		for _, fn := range f.Funcs {
			if fn.Id.Raw() == c.Id.Raw() {
				return fn.Def.Name(true)
			}
		}
	}
	return fmt.Sprintf("#%d", c.Id.Raw())
}
