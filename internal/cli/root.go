// Package cli wires the dwarfcat command line: flag handling, config
// layering, and the export pipeline.
package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/coral-mesh/dwarfcat/internal/config"
	"github.com/coral-mesh/dwarfcat/internal/logging"
	"github.com/coral-mesh/dwarfcat/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:   "dwarfcat <input-file>",
	Short: "Export DWARF debug info as a source-tree-keyed JSON catalog",
	Long: `dwarfcat reads the DWARF debug info of an executable or object file
and writes a JSON document cataloging its declared entities: namespaces,
classes, structs, unions, enums, typedefs, functions, variables, members,
inheritances, and template parameters. Every entity carries its declaration
position, accessibility, linkage, and a reconstructed source-level type
string, nested under its source file and enclosing scopes.

Keys encode declaration lines as zero-padded decimals, so the sorted JSON
reads in source order.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringP("filter", "f", "", "only export entities declared under this path prefix")
	flags.StringP("output", "o", "", "output file path (default out.json)")
	flags.Int("test", 1, "repeat the full pipeline N times and verify identical output")
	flags.Bool("demangle", false, "store demangled forms next to linkage names")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error")

	rootCmd.AddCommand(newVersionCmd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("dwarfcat version %s\n", version.Version)
			cmd.Printf("Git commit: %s\n", version.GitCommit)
			cmd.Printf("Build date: %s\n", version.BuildDate)
			cmd.Printf("Go version: %s\n", version.GoVersion)
		},
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewLoader().Load()
	if err != nil {
		return err
	}
	applyFlags(cmd.Flags(), cfg)

	iterations, _ := cmd.Flags().GetInt("test")

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	log := logging.NewWithComponent(logCfg, "dwarfcat")

	return runPipeline(args[0], cfg, iterations, log)
}

// applyFlags overlays explicitly set flags onto the loaded config,
// making flags the highest-precedence layer.
func applyFlags(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("filter") {
		cfg.Filter, _ = flags.GetString("filter")
	}
	if flags.Changed("output") {
		cfg.Output, _ = flags.GetString("output")
	}
	if flags.Changed("demangle") {
		cfg.Demangle, _ = flags.GetBool("demangle")
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
