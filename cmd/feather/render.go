package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
	"github.com/twg/feather/pkg/feather"
	"gopkg.in/yaml.v3"
)

func (a *app) renderCmd() *cobra.Command {
	var (
		varsFiles []string
		partials  []string
		parents   []string
		escape    string
		output    string
	)
	cmd := &cobra.Command{
		Use:   "render TEMPLATE",
		Short: "Render a template file (- reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tpl, err := a.openTemplate(cmd, args[0], escape)
			if err != nil {
				return err
			}

			vars, err := loadVars(ctx, a.cfg.globals(), varsFiles)
			if err != nil {
				return err
			}

			loader, release, err := a.loader(ctx, partials)
			if err != nil {
				return err
			}
			defer release()

			var chain []any
			for _, p := range parents {
				src, err := os.ReadFile(p)
				if err != nil {
					return fmt.Errorf("reading parent: %w", err)
				}
				pt, err := feather.New(string(src), feather.WithName(p), feather.WithEscape(tpl.Escape()))
				if err != nil {
					return err
				}
				chain = append(chain, pt)
			}

			reg := feather.NewLoaderRegistry(loader, tpl.Escape())
			var parentsArg any
			if len(chain) > 0 {
				parentsArg = chain
			}
			out, err := tpl.RenderContext(ctx, vars, reg, parentsArg)
			if err != nil {
				return err
			}
			a.logger.Debug("rendered", "template", tpl.Name(), "bytes", len(out), "partials", reg.Names())

			if output != "" {
				return atomic.WriteFile(output, strings.NewReader(out))
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringArrayVar(&varsFiles, "vars", nil, "Variables file (.json, .yaml, .yml or .star); repeatable")
	cmd.Flags().StringArrayVar(&partials, "partials", nil, "Directory searched for partials; repeatable")
	cmd.Flags().StringArrayVar(&parents, "parent", nil, "Layout template wrapping the output; repeatable, innermost first")
	cmd.Flags().StringVar(&escape, "escape", "", "Escape mode of untagged lookups: none or markup (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the result to a file instead of stdout")
	return cmd
}

func (a *app) inspectCmd() *cobra.Command {
	var dump bool
	cmd := &cobra.Command{
		Use:   "inspect TEMPLATE",
		Short: "List the variables, partials and sections a template uses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl, err := a.openTemplate(cmd, args[0], "")
			if err != nil {
				return err
			}
			in, err := tpl.Inspect()
			if err != nil {
				return err
			}
			if dump {
				_, err = fmt.Fprint(cmd.OutOrStdout(), in.Dump())
				return err
			}
			var buf bytes.Buffer
			enc := yaml.NewEncoder(&buf)
			enc.SetIndent(2)
			if err := enc.Encode(in); err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(buf.Bytes())
			return err
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "Print the compiled program instead")
	return cmd
}

// openTemplate reads and compiles path. An empty escape falls back to the
// configured mode.
func (a *app) openTemplate(cmd *cobra.Command, path, escape string) (*feather.Template, error) {
	src, err := readSource(cmd, path)
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}
	opts := []feather.Option{feather.WithName(filepath.Base(path)), feather.WithEscape(a.cfg.escapeMode())}
	if escape != "" {
		opts = append(opts, feather.WithEscapeName(escape))
	}
	return feather.Parse(string(src), opts...)
}
