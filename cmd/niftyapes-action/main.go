package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mattjoyce/niftyapes-action/internal/action"
	"github.com/mattjoyce/niftyapes-action/internal/actions"
	"github.com/mattjoyce/niftyapes-action/internal/client"
	"github.com/mattjoyce/niftyapes-action/internal/config"
	"github.com/mattjoyce/niftyapes-action/internal/doctor"
	"github.com/mattjoyce/niftyapes-action/internal/log"
	"github.com/mattjoyce/niftyapes-action/internal/server"
	"github.com/mattjoyce/niftyapes-action/internal/signature"
)

const version = "0.1.0"

// envSigningKey supplies the signing key for action invoke.
const envSigningKey = "NIFTYAPES_SIGNING_KEY"

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(args []string) int {
	if len(args) < 1 {
		printUsage()
		return 1
	}

	cmd := args[0]
	rest := args[1:]

	switch cmd {
	// --- NOUNS ---
	case "system":
		return runSystemNoun(rest)
	case "config":
		return runConfigNoun(rest)
	case "action":
		return runActionNoun(rest)
	case "keys":
		return runKeysNoun(rest)

	// --- ROOT ALIASES ---
	case "start":
		return runStart(rest)
	case "doctor":
		return runConfigCheck(rest)
	case "version":
		fmt.Printf("niftyapes-action version %s\n", version)
		return 0
	case "help", "--help", "-h":
		printUsage()
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}
}

func printUsage() {
	fmt.Print(`niftyapes-action - Signed interaction webhook for chat-platform actions

Usage:
  niftyapes-action <noun> <verb> [flags]

Core Resources (Nouns):
  system    Service lifecycle
  config    Configuration and integrity
  action    Built-in actions and remote invocation
  keys      Signature key material

System Commands:
  system start              Start the action server in foreground

Config Commands:
  config check              Validate configuration and action definitions
  config lock               Write BLAKE3 checksums for the config file

Action Commands:
  action list               Show built-in actions and where they mount
  action metadata <name>    Print an action's metadata (local or --url)
  action invoke             Post a signed mocked interaction to a running server

Keys Commands:
  keys generate <scheme>    Generate a key pair (hmac, ed25519, ecdsa)

General:
  version                   Show version information
  help                      Show this help message

Use 'niftyapes-action <noun> help' for resource-specific flags.
`)
}

// --- NOUN DISPATCHERS ---

func runSystemNoun(args []string) int {
	if len(args) < 1 {
		printSystemNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printSystemNounHelp(os.Stdout)
		return 0
	}

	switch args[0] {
	case "start":
		return runStart(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown system action: %s\n", args[0])
		return 1
	}
}

func runConfigNoun(args []string) int {
	if len(args) < 1 {
		printConfigNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printConfigNounHelp(os.Stdout)
		return 0
	}

	switch args[0] {
	case "check":
		return runConfigCheck(args[1:])
	case "lock":
		return runConfigLock(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", args[0])
		return 1
	}
}

func runActionNoun(args []string) int {
	if len(args) < 1 {
		printActionNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printActionNounHelp(os.Stdout)
		return 0
	}

	switch args[0] {
	case "list":
		return runActionList(args[1:])
	case "metadata":
		return runActionMetadata(args[1:])
	case "invoke":
		return runActionInvoke(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown action verb: %s\n", args[0])
		return 1
	}
}

func runKeysNoun(args []string) int {
	if len(args) < 1 {
		printKeysNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printKeysNounHelp(os.Stdout)
		return 0
	}

	switch args[0] {
	case "generate":
		return runKeysGenerate(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown keys action: %s\n", args[0])
		return 1
	}
}

func isHelpToken(token string) bool {
	return token == "help" || token == "--help" || token == "-h"
}

func printSystemNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: niftyapes-action system start [--config PATH] [--env-file PATH]")
}

func printConfigNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: niftyapes-action config <check|lock> [--config PATH]")
	fmt.Fprintln(w, "  check  [--strict] [--format human|json]")
	fmt.Fprintln(w, "  lock   [--dry-run] [-v]")
}

func printActionNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: niftyapes-action action <list|metadata|invoke>")
	fmt.Fprintln(w, "  list      [--config PATH] [--json]")
	fmt.Fprintln(w, "  metadata  <name> | --url BASE_URL")
	fmt.Fprintln(w, "  invoke    --url BASE_URL (--command NAME | --ping) [--key SPEC]")
}

func printKeysNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: niftyapes-action keys generate <hmac|ed25519|ecdsa> [--json]")
}

// loadEnvFile loads KEY=VALUE pairs when the file exists. Existing
// environment variables win.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// parseArgs parses flags that may follow positional arguments and returns
// the positionals.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			return positional, nil
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
}

// buildRegistry creates every enabled built-in action with its configured
// base path.
func buildRegistry(cfg *config.Config) (*action.Registry, error) {
	registry := action.NewRegistry()
	for _, name := range cfg.EnabledActions(actions.Names()) {
		a, err := actions.Build(name, cfg.Actions[name].BasePath)
		if err != nil {
			return nil, err
		}
		if err := registry.Add(a); err != nil {
			return nil, err
		}
	}
	for name := range cfg.Actions {
		if !actions.Known(name) {
			return nil, fmt.Errorf("unknown action %q in config (built in: %s)", name, strings.Join(actions.Names(), ", "))
		}
	}
	if len(registry.All()) == 0 {
		return nil, fmt.Errorf("no actions enabled")
	}
	return registry, nil
}

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	envFile := fs.String("env-file", ".env", "Environment file loaded before the config")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	if err := loadEnvFile(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load env file: %v\n", err)
		return 1
	}

	path, err := config.Discover(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to discover config: %v\n", err)
		return 1
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel, cfg.Service.LogFormat)
	logger := log.WithComponent("main")
	logger.Info("niftyapes-action starting", "version", version, "config", cfg.SourcePath)

	registry, err := buildRegistry(cfg)
	if err != nil {
		logger.Error("failed to build actions", "error", err)
		return 1
	}
	for _, a := range registry.All() {
		log.WithAction(a.Name()).Info("action registered", "base_path", a.BasePath(), "commands", a.DispatchKeys())
	}

	verifier, err := cfg.Signature.NewVerifier()
	if err != nil {
		logger.Error("failed to configure signature verification", "error", err)
		return 1
	}
	logger.Info("signature verification configured", "scheme", verifier.Scheme().Name(), "max_age", cfg.Signature.MaxAge.String())
	if cfg.Signature.MaxAge == 0 {
		logger.Warn("timestamp freshness check disabled")
	}

	srv, err := server.New(server.Config{
		Listen:       cfg.Server.Listen,
		MaxBodySize:  cfg.Server.MaxBodySize,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		CORSOrigins:  cfg.Server.CORSOrigins,
	}, registry, verifier, log.WithComponent("server"))
	if err != nil {
		logger.Error("failed to create server", "error", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
		close(errCh)
	}()

	logger.Info("niftyapes-action running (press Ctrl+C to stop)")

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
		if err := <-errCh; err != nil {
			logger.Error("shutdown failed", "error", err)
			return 1
		}
	case err := <-errCh:
		logger.Error("server failed", "error", err)
		return 1
	}

	logger.Info("niftyapes-action stopped")
	return 0
}

func runConfigCheck(args []string) int {
	var configPath, format string
	var strict, jsonOut bool

	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", "", "Path to configuration")
	fs.BoolVar(&strict, "strict", false, "Treat warnings as errors")
	fs.StringVar(&format, "format", "human", "Output format (human, json)")
	fs.BoolVar(&jsonOut, "json", false, "Output in JSON")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if jsonOut {
		format = "json"
	}

	path, err := config.Discover(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to discover config: %v\n", err)
		return 1
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config load error: %v\n", err)
		return 1
	}

	definitions := make([]action.Definition, 0, len(actions.Names()))
	for _, name := range actions.Names() {
		def, err := actions.Definition(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Action catalog error: %v\n", err)
			return 1
		}
		definitions = append(definitions, def)
	}

	result := doctor.New(cfg, definitions).Validate()

	switch format {
	case "json":
		out, err := doctor.FormatJSON(result)
		if err != nil {
			fmt.Fprintf(os.Stderr, "JSON format error: %v\n", err)
			return 1
		}
		fmt.Println(out)
	default:
		fmt.Print(doctor.FormatHuman(result))
	}

	if !result.Valid {
		return 1
	}
	if strict && len(result.Warnings) > 0 {
		return 2
	}
	return 0
}

func runConfigLock(args []string) int {
	var configPath string
	var verbose, dryRun bool

	fs := flag.NewFlagSet("lock", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", "", "Path to configuration")
	fs.BoolVar(&verbose, "v", false, "Verbose output")
	fs.BoolVar(&dryRun, "dry-run", false, "Compute hashes without writing")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	path, err := config.Discover(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to discover config: %v\n", err)
		return 1
	}
	file, err := config.ResolveFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	report, err := config.Lock([]string{file}, dryRun)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to lock config: %v\n", err)
		return 1
	}

	if verbose {
		for name, hash := range report.Hashes {
			fmt.Printf("HASH %s: %s\n", name, hash)
		}
	}
	if dryRun {
		fmt.Printf("Dry run: would write %s\n", report.ChecksumPath)
		return 0
	}
	fmt.Printf("Wrote %s\n", report.ChecksumPath)
	return 0
}

type actionListing struct {
	Name     string   `json:"name"`
	BasePath string   `json:"base_path"`
	Enabled  bool     `json:"enabled"`
	Commands []string `json:"commands"`
}

func runActionList(args []string) int {
	var configPath string
	var jsonOut bool

	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", "", "Path to configuration (optional)")
	fs.BoolVar(&jsonOut, "json", false, "Output in JSON")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg := config.Defaults()
	if path, err := config.Discover(configPath); err == nil {
		loaded, err := config.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Config load error: %v\n", err)
			return 1
		}
		cfg = loaded
	} else if configPath != "" {
		fmt.Fprintf(os.Stderr, "Failed to discover config: %v\n", err)
		return 1
	}

	enabled := make(map[string]bool)
	for _, name := range cfg.EnabledActions(actions.Names()) {
		enabled[name] = true
	}

	var listings []actionListing
	for _, name := range actions.Names() {
		a, err := actions.Build(name, cfg.Actions[name].BasePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Action %s: %v\n", name, err)
			return 1
		}
		listings = append(listings, actionListing{
			Name:     a.Name(),
			BasePath: a.BasePath(),
			Enabled:  enabled[name],
			Commands: a.Metadata().CommandNames(),
		})
	}

	if jsonOut {
		return printJSON(listings)
	}
	for _, l := range listings {
		state := "enabled"
		if !l.Enabled {
			state = "disabled"
		}
		fmt.Printf("%-12s %-20s %-9s %s\n", l.Name, l.BasePath, state, strings.Join(l.Commands, ", "))
	}
	return 0
}

func runActionMetadata(args []string) int {
	var url string

	fs := flag.NewFlagSet("metadata", flag.ContinueOnError)
	fs.StringVar(&url, "url", "", "Base URL of a running action, e.g. http://127.0.0.1:8080/niftyapes")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return 1
	}

	if url != "" {
		md, err := client.New(url, nil).Metadata(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
		return printJSON(md)
	}

	if len(positional) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: niftyapes-action action metadata <name> | --url BASE_URL")
		return 1
	}
	a, err := actions.Build(positional[0], "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	return printJSON(a.Metadata())
}

func runActionInvoke(args []string) int {
	var url, key, command string
	var ping bool

	fs := flag.NewFlagSet("invoke", flag.ContinueOnError)
	fs.StringVar(&url, "url", "", "Base URL of a running action")
	fs.StringVar(&key, "key", "", "Signing key spec (default $"+envSigningKey+")")
	fs.StringVar(&command, "command", "", "Application command to invoke")
	fs.BoolVar(&ping, "ping", false, "Send a ping instead of a command")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	if url == "" || (command == "" && !ping) {
		fmt.Fprintln(os.Stderr, "Usage: niftyapes-action action invoke --url BASE_URL (--command NAME | --ping) [--key SPEC]")
		return 1
	}
	if key == "" {
		key = os.Getenv(envSigningKey)
	}
	if key == "" {
		fmt.Fprintf(os.Stderr, "No signing key: pass --key or set $%s\n", envSigningKey)
		return 1
	}

	signer, err := signature.ParseSigningKey(key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid signing key: %v\n", err)
		return 1
	}

	c := client.New(url, signer)
	ctx := context.Background()

	if ping {
		resp, err := c.Ping(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
		return printJSON(resp)
	}

	result, err := c.Run(ctx, command)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	return printJSON(result)
}

func runKeysGenerate(args []string) int {
	var jsonOut bool

	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.BoolVar(&jsonOut, "json", false, "Output in JSON")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return 1
	}
	if len(positional) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: niftyapes-action keys generate <hmac|ed25519|ecdsa> [--json]")
		return 1
	}

	pair, err := signature.GenerateKeyPair(positional[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	if jsonOut {
		return printJSON(pair)
	}
	fmt.Printf("signing_key: %s\n", pair.Signing)
	fmt.Printf("verification_key: %s\n", pair.Verification)
	return 0
}

func printJSON(v any) int {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "JSON format error: %v\n", err)
		return 1
	}
	fmt.Println(string(data))
	return 0
}
