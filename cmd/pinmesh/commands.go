package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/chazu/pinball/pkg/config"
	"github.com/chazu/pinball/pkg/engine"
	"github.com/chazu/pinball/pkg/export"
	"github.com/chazu/pinball/pkg/layout"
	"github.com/chazu/pinball/pkg/tessellate"
)

type options struct {
	configPath string
	outDir     string
	format     string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "pinmesh",
		Short:         "build pinball table meshes",
		Long:          "builds the meshes of a pinball table layout script, or of the standard table",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.verbose {
				log.SetLevel(log.DebugLevel)
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "TOML file overriding the table constants")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		newExportCmd(opts),
		newInspectCmd(opts),
		newWatchCmd(opts),
	)
	return rootCmd
}

func addOutputFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", "out", "output directory")
	cmd.Flags().StringVarP(&opts.format, "format", "f", string(export.FormatSTL), "output format: stl or json")
}

func newExportCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [script]",
		Short: "write the table meshes",
		Long:  "writes one STL file per part, or a single JSON document, into the output directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := runExport(opts, scriptArg(args))
			return err
		},
	}
	addOutputFlags(cmd, opts)
	return cmd
}

func newInspectCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [script]",
		Short: "print per-part mesh statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			parts, err := build(c, scriptArg(args))
			if err != nil {
				return err
			}
			return inspect(cmd.OutOrStdout(), parts)
		},
	}
}

func newWatchCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch script",
		Short: "re-export whenever the script changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return watch(ctx, opts, args[0], nil)
		},
	}
	addOutputFlags(cmd, opts)
	return cmd
}

func scriptArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// loadLayout evaluates script, or builds the standard table when script is
// empty.
func loadLayout(c config.Config, script string) (*layout.Layout, error) {
	if script == "" {
		return layout.Standard(c), nil
	}

	source, err := os.ReadFile(script)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	l, evalErrs, err := engine.NewEngineWithDefaults(c).Evaluate(string(source))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", script, err)
	}
	if len(evalErrs) > 0 {
		errs := make([]error, 0, len(evalErrs))
		for _, e := range evalErrs {
			errs = append(errs, fmt.Errorf("%s: %w", script, e))
		}
		return nil, errors.Join(errs...)
	}
	return l, nil
}

func build(c config.Config, script string) ([]*tessellate.Part, error) {
	l, err := loadLayout(c, script)
	if err != nil {
		return nil, err
	}
	for _, w := range layout.ValidateAll(l).Warnings {
		log.WithField("node", w.NodeID.Short()).Warn(w.Message)
	}
	return tessellate.Tessellate(l)
}

// runExport builds the layout and writes it, returning the written paths.
func runExport(opts *options, script string) ([]string, error) {
	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return nil, err
	}
	c, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	parts, err := build(c, script)
	if err != nil {
		return nil, err
	}

	paths, err := export.Write(opts.outDir, format, parts)
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		log.WithField("path", p).Debug("wrote")
	}
	log.WithFields(log.Fields{
		"parts":  len(parts),
		"files":  len(paths),
		"format": format,
		"out":    opts.outDir,
	}).Info("export done")
	return paths, nil
}

func inspect(w io.Writer, parts []*tessellate.Part) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PART\tKIND\tVERTICES\tTRIANGLES\tCLOSED\tTWO-SIDED\tFLIPPED")
	for _, p := range parts {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%t\t%t\t%d\n",
			p.Name, p.Kind, p.Report.Vertices, p.Report.Triangles,
			p.Report.Closed(), p.TwoSided, p.Report.FlippedNormals)
	}
	return tw.Flush()
}
