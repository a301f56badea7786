package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jwhitman/tally/internal/config"
	"github.com/jwhitman/tally/internal/index"
	"github.com/jwhitman/tally/internal/mcp"
	"github.com/jwhitman/tally/internal/ops"
	"github.com/jwhitman/tally/internal/vault"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"in": true, "out": true, "cancel": true, "start": true,
	"add-task": true, "note": true, "headings": true, "active": true,
	"report": true, "goals": true, "reindex": true, "watch": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   _        _ _
  | |_ __ _| | |_   _
  | __/ _` + "`" + ` | | | | | |
  | || (_| | | | |_| |
   \__\__,_|_|_|\__, |
                |___/

  Activity clocks in your markdown notes

  Usage: tally <command> [options]
         tally --help

  MCP server mode requires piped input.`)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before any setup (nothing needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	env, cleanup, err := buildEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(env)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'tally --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	if err := mcp.Run(env, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// buildEnv wires config, vault, and the report index into an operation
// environment. Config comes from ~/.tally/config.json overlaid with the
// nearest .tally/config.json above the working directory.
func buildEnv() (*ops.Env, func(), error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, nil, fmt.Errorf("could not determine home directory: %w", err)
	}
	baseDir := filepath.Join(homeDir, ".tally")

	cwd, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("could not determine working directory: %w", err)
	}

	cfg, err := config.LoadWithVault(baseDir, cwd)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	vaultDir := cfg.VaultDir
	if vaultDir == "" {
		vaultDir = cwd
	}
	v, err := vault.Open(vaultDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open vault: %w", err)
	}

	db, err := index.Init(baseDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize index: %w", err)
	}
	index.ConfigurePool(db, cfg)

	env := &ops.Env{Vault: v, DB: db, Cfg: cfg, Clock: ops.SystemClock{}}
	return env, func() { db.Close() }, nil
}
