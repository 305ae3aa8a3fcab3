package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/1broseidon/winkeep/internal/config"
	"github.com/1broseidon/winkeep/internal/ipc"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		if len(os.Args) > 2 && (os.Args[2] == "help" || os.Args[2] == "-h" || os.Args[2] == "--help") {
			fmt.Fprintln(os.Stdout, "Usage: winkeep daemon")
			os.Exit(0)
		}
		if len(os.Args) > 2 {
			fmt.Fprintln(os.Stderr, "daemon takes no arguments")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Usage: winkeep daemon")
			os.Exit(2)
		}
		runDaemon()
	case "capture":
		os.Exit(runCapture(os.Args[2:]))
	case "restore":
		os.Exit(runRestore(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: winkeep <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the winkeep daemon (foreground)")
	fmt.Fprintln(w, "  capture             Save the current window layout")
	fmt.Fprintln(w, "  restore             Restore the saved layout for this display")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  reload              Reload configuration and cycle the engine")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'winkeep <command> --help' for command-specific options.")
}

func runCapture(args []string) int {
	reason, code, ok := parseReasonArgs("capture", "Capture the position and state of every window and save it.", "CLI: Capture", args)
	if !ok {
		return code
	}

	res, err := ipc.NewClient().Capture(reason)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("captured %d windows (signature %d, saved: %t)\n", res.Windows, res.Signature, res.Saved)
	if res.Skipped > 0 {
		fmt.Printf("skipped %d windows without a usable frame\n", res.Skipped)
	}
	return 0
}

func runRestore(args []string) int {
	reason, code, ok := parseReasonArgs("restore", "Restore saved window positions for the current display.", "CLI: Restore", args)
	if !ok {
		return code
	}

	res, err := ipc.NewClient().Restore(reason)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("restored %d windows, moved %d, %d without saved state", res.Restored, res.Moved, res.NotFound)
	if res.Failed > 0 {
		fmt.Printf(", %d failed", res.Failed)
	}
	fmt.Println()
	return 0
}

// parseReasonArgs parses the shared [--reason TEXT] flag set. ok is false
// when the command should exit with code.
func parseReasonArgs(name, description, fallback string, args []string) (reason string, code int, ok bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	r := fs.String("reason", fallback, "Label recorded in the daemon log")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: winkeep %s [--reason TEXT]\n", name)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, description)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return "", 0, false
		}
		return "", 2, false
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "%s takes no arguments\n", name)
		fs.Usage()
		return "", 2, false
	}
	return *r, 0, true
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Print status as JSON (default when stdout is not a terminal)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winkeep status [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *asJSON || !term.IsTerminal(int(os.Stdout.Fd())) {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}
	writeStatus(os.Stdout, status)
	return 0
}

func writeStatus(w io.Writer, status *ipc.StatusData) {
	fmt.Fprintf(w, "daemon_running:    %v\n", status.DaemonRunning)
	fmt.Fprintf(w, "enabled:           %v\n", status.Enabled)
	fmt.Fprintf(w, "instance:          %s\n", status.Instance)
	fmt.Fprintf(w, "state_file:        %s\n", status.StatePath)
	fmt.Fprintf(w, "persistent:        %v\n", status.Persistent)
	fmt.Fprintf(w, "process_saved:     %v\n", status.ProcessSaved)
	fmt.Fprintf(w, "display:           %dx%d (signature %d)\n", status.DisplayWidth, status.DisplayHeight, status.DisplaySignature)
	for _, m := range status.Monitors {
		fmt.Fprintf(w, "  monitor %d:       %s %dx%d+%d+%d\n", m.ID, m.Name, m.Width, m.Height, m.X, m.Y)
	}
	fmt.Fprintf(w, "saved_displays:    %d\n", status.Stats.Displays)
	fmt.Fprintf(w, "saved_windows:     %d\n", status.Stats.SavedWindows)
	fmt.Fprintf(w, "captures:          %d\n", status.Stats.Captures)
	fmt.Fprintf(w, "restores:          %d\n", status.Stats.Restores)
	fmt.Fprintf(w, "save_failures:     %d\n", status.Stats.SaveFailures)
	fmt.Fprintf(w, "load_failures:     %d\n", status.Stats.LoadFailures)
	fmt.Fprintf(w, "uptime_seconds:    %d\n", status.UptimeSeconds)
}

func runReload(args []string) int {
	if len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help") {
		fmt.Fprintln(os.Stdout, "Usage: winkeep reload")
		fmt.Fprintln(os.Stdout, "")
		fmt.Fprintln(os.Stdout, "Reload the daemon configuration. The engine saves, tears down and")
		fmt.Fprintln(os.Stdout, "starts again, restoring the layout it just saved.")
		return 0
	}
	if len(args) != 0 {
		fmt.Fprintln(os.Stderr, "reload takes no arguments")
		return 2
	}

	if err := ipc.NewClient().Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("reloaded")
	return 0
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  winkeep config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  winkeep config print [--path PATH] [--effective|--defaults]")
		fmt.Fprintln(os.Stderr, "  winkeep config explain [--path PATH] <key>")
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/winkeep/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		if _, err := loadConfigResult(*path); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/winkeep/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		printEffective := fs.Bool("effective", false, "Print effective config (default)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		cfg := config.DefaultConfig()
		if !*printDefaults {
			_ = printEffective // default
			res, err := loadConfigResult(*path)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			cfg = res.Config
		}
		if dir, err := cfg.StateBaseDir(); err == nil {
			fmt.Printf("# state_dir: %s\n", dir)
		}
		data, err := cfg.Marshal()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	case "explain":
		fs := flag.NewFlagSet("explain", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/winkeep/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "explain requires <key>")
			return 2
		}
		queryPath := fs.Arg(0)

		res, err := loadConfigResult(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		value, src, err := config.Explain(res, queryPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		out, err := yaml.Marshal(value)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		fmt.Printf("path: %s\n", queryPath)
		fmt.Printf("source: %s\n", formatSource(src))
		fmt.Printf("value:\n%s", string(out))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func loadConfigResult(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(path)
}

func formatSource(src config.Source) string {
	switch src.Kind {
	case config.SourceFile:
		if src.File == "" {
			return "file"
		}
		if src.Line > 0 {
			return fmt.Sprintf("file:%s:%d:%d", src.File, src.Line, src.Column)
		}
		return "file:" + src.File
	case config.SourceDefault:
		return "default"
	default:
		return string(src.Kind)
	}
}
