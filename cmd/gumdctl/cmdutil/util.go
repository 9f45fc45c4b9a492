// Package cmdutil provides shared utilities for gumdctl commands: config
// loading, table rendering, and the account engine every subcommand
// drives. Administrative CLIs for this account family have always worked
// directly against the account tables under the store's own file lock
// rather than through a remote protocol, so gumdctl builds the same
// engine the daemon builds instead of dialing a bus client — the bus
// transport itself is outside this daemon's scope (see SPEC_FULL.md
// §4.8's busiface framing).
package cmdutil

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/o1-security/gumd/internal/cli/output"
	"github.com/o1-security/gumd/internal/cli/prompt"
	"github.com/o1-security/gumd/internal/config"
	"github.com/o1-security/gumd/pkg/engine"
	"github.com/o1-security/gumd/pkg/metrics"
	"github.com/o1-security/gumd/pkg/store"
)

// CallerID identifies gumdctl itself as the engine's caller for audit
// journaling, since the CLI talks to the engine in-process rather than
// through a bus call carrying its own caller identity.
const CallerID = "gumdctl"

// Flags stores global flag values accessible by subcommands.
var Flags = &GlobalFlags{}

// GlobalFlags holds the global flag values.
type GlobalFlags struct {
	ConfigPath string
	Output     string
	NoColor    bool
}

// GetOutputFormatParsed returns the parsed output format.
func GetOutputFormatParsed() (output.Format, error) {
	return output.ParseFormat(Flags.Output)
}

// PrintResource prints data in the configured format: JSON/YAML marshal
// data directly, table format uses tableRenderer.
func PrintResource(w io.Writer, data any, tableRenderer output.TableRenderer) error {
	format, err := GetOutputFormatParsed()
	if err != nil {
		return err
	}
	switch format {
	case output.FormatJSON:
		return output.PrintJSON(w, data)
	case output.FormatYAML:
		return output.PrintYAML(w, data)
	default:
		return output.PrintTable(w, tableRenderer)
	}
}

// PrintSuccess prints a success message if the output format is table.
func PrintSuccess(msg string) {
	format, err := GetOutputFormatParsed()
	if err != nil || format != output.FormatTable {
		return
	}
	output.NewPrinter(os.Stdout, format, !Flags.NoColor).Success(msg)
}

// Config loads configuration from the global --config flag.
func Config() (*config.Config, error) {
	cfg, err := config.Load(Flags.ConfigPath, nil)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// Accounts builds the account store cfg describes. Metrics are left
// unregistered (nil) since gumdctl is a one-shot process, not a
// long-lived exporter.
func Accounts(cfg *config.Config) *store.Accounts {
	var storeMetrics *metrics.StoreMetrics
	return store.NewAccounts(store.Paths{
		Passwd:  cfg.General.PasswdFile,
		Shadow:  cfg.General.ShadowFile,
		Group:   cfg.General.GroupFile,
		Gshadow: cfg.General.GshadowFile,
	}, storeMetrics)
}

// Engine loads configuration from the global --config flag and builds
// the account engine over it. The audit log is left nil: badger holds
// an exclusive lock on its directory, and gumd itself already holds it
// whenever the daemon is running, so a short-lived CLI process can't
// safely share it.
func Engine() (*engine.Engine, error) {
	cfg, err := Config()
	if err != nil {
		return nil, err
	}
	return engine.New(Accounts(cfg), &cfg.General, nil, nil), nil
}

// ParseCommaSeparatedList parses a comma-separated string into a slice of
// trimmed, non-empty strings.
func ParseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	var result []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}

// EmptyOr returns value if non-empty, otherwise fallback. Useful for
// table display where empty fields should show "-".
func EmptyOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// HandleAbort checks if err is a prompt abort (Ctrl+C) and prints a
// message instead of propagating it as a hard error.
func HandleAbort(err error) error {
	if prompt.IsAborted(err) {
		fmt.Println("\nAborted.")
		return nil
	}
	return err
}
