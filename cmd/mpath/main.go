// Command mpath is a static indexer and symbol resolver for TCL-like
// search-path-based name lookup: it walks a set of directory roots,
// builds a namespace honoring shadowing rules, and resolves calls,
// imports, and class ancestors into a cross-file dependency graph.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/watermarkhu/mpath/pkg/builder"
	"github.com/watermarkhu/mpath/pkg/builtin"
	"github.com/watermarkhu/mpath/pkg/dependency"
	"github.com/watermarkhu/mpath/pkg/grammar"
	"github.com/watermarkhu/mpath/pkg/mcpserver"
	"github.com/watermarkhu/mpath/pkg/pathengine"
	"github.com/watermarkhu/mpath/pkg/util"
	"github.com/watermarkhu/mpath/pkg/watch"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "resolve":
		runResolve(os.Args[2:])
	case "deps":
		runDeps(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	case "watch":
		runWatch(os.Args[2:])
	case "version":
		fmt.Printf("mpath %s\n", version)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: mpath <command> [args]

commands:
  resolve <name> [--path dir]...      resolve a name against a search path
  deps <name> [--path dir]...         print resolved dependencies/dependants for a name
  serve [--path dir]...               run the MCP server over stdio
  watch [--path dir]...               index and watch a search path for changes
  version                             print the version
  help                                print this message

flags (any command):
  --path dir          add dir to the search path (repeatable)
  --no-deps           skip dependency analysis during indexing
  --progress          show progress while indexing
  --builtins file     path to the builtin reference JSON (default: none)
  --log-level level   debug|info|warn|error (default: info)
  --log-format fmt    json|text (default: json)
  --audit-log file    JSONL file to record MCP tool calls to (serve only)
  --exclude pattern   doublestar glob to skip during discovery (repeatable)`)
}

// cliFlags is the manual os.Args-based flag parser every subcommand shares,
// matching the style cmd/uispec uses: no cobra/pflag, just a loop over
// args recognizing "--flag value" and "--flag" pairs.
type cliFlags struct {
	paths        []string
	noDeps       bool
	progress     bool
	builtinsFile string
	logLevel     string
	logFormat    string
	auditLog     string
	exclude      []string
	positional   []string
}

func parseFlags(args []string) cliFlags {
	f := cliFlags{logLevel: "info", logFormat: "json"}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--path":
			if i+1 < len(args) {
				i++
				f.paths = append(f.paths, args[i])
			}
		case "--no-deps":
			f.noDeps = true
		case "--progress":
			f.progress = true
		case "--builtins":
			if i+1 < len(args) {
				i++
				f.builtinsFile = args[i]
			}
		case "--log-level":
			if i+1 < len(args) {
				i++
				f.logLevel = args[i]
			}
		case "--log-format":
			if i+1 < len(args) {
				i++
				f.logFormat = args[i]
			}
		case "--audit-log":
			if i+1 < len(args) {
				i++
				f.auditLog = args[i]
			}
		case "--exclude":
			if i+1 < len(args) {
				i++
				f.exclude = append(f.exclude, args[i])
			}
		default:
			if !strings.HasPrefix(args[i], "--") {
				f.positional = append(f.positional, args[i])
			}
		}
	}
	return f
}

func buildEngine(f cliFlags) (*pathengine.Engine, error) {
	cfg, _ := loadProjectConfig()

	paths := resolveSearchPath(f.paths, cfg)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no search path given: pass --path or set search_path in .mpath/config.yaml")
	}

	logLevel := f.logLevel
	logFormat := f.logFormat
	if cfg != nil {
		if cfg.LogLevel != "" && logLevel == "info" {
			logLevel = cfg.LogLevel
		}
		if cfg.LogFormat != "" && logFormat == "json" {
			logFormat = cfg.LogFormat
		}
	}
	logger := util.NewLogger(util.LoggerConfig{
		Level:  util.LogLevel(logLevel),
		Format: util.LogFormat(logFormat),
		Output: os.Stderr,
	})

	builtins := builtin.Empty()
	if f.builtinsFile != "" {
		builtins = builtin.Load(f.builtinsFile, util.Component(logger, "builtin"))
	}

	cache, err := grammar.NewCache(1024)
	if err != nil {
		return nil, fmt.Errorf("build grammar cache: %w", err)
	}
	analyzer := dependency.New(builtins)
	runDeps := !f.noDeps
	b := builder.New(cache, analyzer, runDeps, util.Component(logger, "builder"))

	opts := pathengine.Options{
		// Dependency analysis defaults to on: absence of a config file or
		// --no-deps flag must not silently disable it.
		DependencyAnalysis: resolveBool(f.noDeps, !f.noDeps, cfg == nil || cfg.DependencyAnalysis),
		ShowProgress:       resolveBool(f.progress, f.progress, cfg != nil && cfg.ShowProgress),
		ExcludeGlobs:       resolveExclude(f.exclude, cfg),
	}

	engine, err := pathengine.New(paths, b, opts, util.Component(logger, "pathengine"))
	if err != nil {
		return nil, fmt.Errorf("build path engine: %w", err)
	}
	if opts.DependencyAnalysis {
		engine.ResolveDependencies()
	}
	return engine, nil
}

func runResolve(args []string) {
	f := parseFlags(args)
	if len(f.positional) == 0 {
		fmt.Fprintln(os.Stderr, "usage: mpath resolve <name> [--path dir]...")
		os.Exit(1)
	}
	engine, err := buildEngine(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	n, ok := engine.Resolve(f.positional[0], nil)
	if !ok {
		fmt.Printf("%s: unresolved\n", f.positional[0])
		os.Exit(1)
	}
	fmt.Printf("%s (%s) at %s\n", n.Fqdm, n.Kind, n.Path)
}

func runDeps(args []string) {
	f := parseFlags(args)
	if len(f.positional) == 0 {
		fmt.Fprintln(os.Stderr, "usage: mpath deps <name> [--path dir]...")
		os.Exit(1)
	}
	engine, err := buildEngine(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	n, ok := engine.Resolve(f.positional[0], nil)
	if !ok {
		fmt.Printf("%s: unresolved\n", f.positional[0])
		os.Exit(1)
	}
	fmt.Printf("%s (%s)\n", n.Fqdm, n.Kind)
	fmt.Println("dependencies:")
	for _, d := range n.Dependencies {
		fmt.Printf("  %s\n", d.Fqdm)
	}
	fmt.Println("dependants:")
	for _, d := range n.Dependants {
		fmt.Printf("  %s\n", d.Fqdm)
	}
	if len(n.UnresolvedDependencies) > 0 {
		fmt.Println("unresolved:")
		for _, u := range n.UnresolvedDependencies {
			fmt.Printf("  %s\n", u)
		}
	}
}

func runServe(args []string) {
	f := parseFlags(args)
	engine, err := buildEngine(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	srv, err := mcpserver.NewServer(engine, f.auditLog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open audit log: %v\n", err)
		os.Exit(1)
	}
	defer srv.Close()
	if err := srv.ServeStdio(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func runWatch(args []string) {
	f := parseFlags(args)
	engine, err := buildEngine(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := util.NewLogger(util.LoggerConfig{
		Level:  util.LogLevel(f.logLevel),
		Format: util.LogFormat(f.logFormat),
		Output: os.Stderr,
	})
	w, err := watch.New(engine, watch.DefaultOptions(), util.Component(logger, "watch"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start watcher: %v\n", err)
		os.Exit(1)
	}
	for _, p := range engine.SearchPath() {
		if err := w.Start(p, true, false); err != nil {
			fmt.Fprintf(os.Stderr, "failed to watch %s: %v\n", p, err)
		}
	}
	fmt.Println("watching for changes, press Ctrl+C to stop")
	select {}
}
