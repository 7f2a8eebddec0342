package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"qexpand/internal/config"
)

// Version is stamped at build time with -ldflags "-X qexpand/internal/cli.Version=...".
var Version = "1.0.0"

// Options are the persistent flags shared by every command.
type Options struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
	Addr       string
	ModelsDir  string
	Device     string
}

// Seams for tests; they default to the real implementations.
var (
	fnServe  = runServe
	fnExpand = runExpand
	fnCheck  = runCheck
)

// resolveConfig loads the config file and applies flag overrides.
func resolveConfig(o *Options) (config.Config, error) {
	cfg, err := config.Resolve(o.ConfigPath)
	if err != nil {
		return cfg, err
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.LogFormat = o.LogFormat
	}
	if o.Addr != "" {
		cfg.Addr = o.Addr
	}
	if o.ModelsDir != "" {
		cfg.ModelsDir = o.ModelsDir
	}
	if o.Device != "" {
		cfg.Device = o.Device
	}
	return cfg, nil
}

// buildRootCmd constructs the command tree writing human output to out.
func buildRootCmd(o *Options, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "qexpand",
		Short:         "LLM-backed search query expansion service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	// Persistent flags -> Options
	pf := root.PersistentFlags()
	pf.StringVarP(&o.ConfigPath, "config", "c", o.ConfigPath, "Config file (.yaml, .json, .toml); defaults to "+config.EnvConfig)
	pf.StringVar(&o.LogLevel, "log-level", o.LogLevel, "Log level: debug|info|warn|error")
	pf.StringVar(&o.LogFormat, "log-format", o.LogFormat, "Log format: console|json")
	pf.StringVar(&o.ModelsDir, "models-dir", o.ModelsDir, "Directory holding GGUF artifacts")
	pf.StringVar(&o.Device, "device", o.Device, "Device preference: auto|cpu|gpu")

	serveCmd := &cobra.Command{
		Use:     "serve",
		Short:   "Load the model and serve the HTTP API",
		Example: "  qexpand serve --addr :8000\n  qexpand serve -c qexpand.yaml",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(o)
			if err != nil {
				return err
			}
			return fnServe(cmd.Context(), cfg)
		},
	}
	serveCmd.Flags().StringVar(&o.Addr, "addr", o.Addr, "HTTP listen address, e.g. :8000")

	var asJSON bool
	expandCmd := &cobra.Command{
		Use:     "expand <query>...",
		Short:   "Expand queries once and print the results",
		Example: "  qexpand expand \"ML algos\" \"k8s jobs\"",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(o)
			if err != nil {
				return err
			}
			return fnExpand(cmd.Context(), cfg, args, asJSON, cmd.OutOrStdout())
		},
	}
	expandCmd.Flags().BoolVar(&asJSON, "json", false, "Print one JSON object per query")

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Print the effective configuration, load plan and local artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(o)
			if err != nil {
				return err
			}
			return fnCheck(cfg, cmd.OutOrStdout())
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "qexpand", Version)
		},
	}

	root.AddCommand(serveCmd, expandCmd, checkCmd, versionCmd)

	// completion command
	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(cmd.OutOrStdout(), true) }})
	root.AddCommand(completionCmd)

	return root
}

// MainWithArgs runs the CLI and returns the process exit code: 0 on
// success, 1 on error, 2 when no command is given.
func MainWithArgs(args []string) int {
	return mainWith(args, os.Stdout, os.Stderr)
}

func mainWith(args []string, stdout, stderr io.Writer) int {
	o := &Options{ConfigPath: envStr(config.EnvConfig, "")}
	root := buildRootCmd(o, stdout)
	if len(args) == 0 {
		_ = root.Usage()
		return 2
	}
	root.SetArgs(args)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	return 0
}

// Main returns an exit code for use by cmd/qexpand.
func Main() int { return MainWithArgs(os.Args[1:]) }
