package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
	"github.com/twg/feather/pkg/feather"
	"gopkg.in/yaml.v3"
)

// encodingFor picks the encoding from an explicit format or the file
// extension; anything unknown is the binary form.
func encodingFor(format, path string) string {
	if format != "" {
		return strings.ToLower(format)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	}
	return "binary"
}

func encodeTemplate(t *feather.Template, format string) ([]byte, error) {
	switch format {
	case "json":
		return json.MarshalIndent(t, "", "  ")
	case "yaml":
		return yaml.Marshal(t)
	case "binary":
		return t.MarshalBinary()
	}
	return nil, fmt.Errorf("%w: unknown format %q", feather.ErrInvalidArgument, format)
}

func decodeTemplate(b []byte, format string) (*feather.Template, error) {
	t := new(feather.Template)
	var err error
	switch format {
	case "json":
		err = json.Unmarshal(b, t)
	case "yaml":
		err = yaml.Unmarshal(b, t)
	case "binary":
		err = t.UnmarshalBinary(b)
	default:
		err = fmt.Errorf("%w: unknown format %q", feather.ErrInvalidArgument, format)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (a *app) encodeCmd() *cobra.Command {
	var output, format, escape string
	cmd := &cobra.Command{
		Use:   "encode TEMPLATE",
		Short: "Encode a template as json, yaml or the compact binary form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl, err := a.openTemplate(cmd, args[0], escape)
			if err != nil {
				return err
			}
			b, err := encodeTemplate(tpl, encodingFor(format, output))
			if err != nil {
				return err
			}
			if err := atomic.WriteFile(output, bytes.NewReader(b)); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			a.logger.Debug("template encoded", "output", output, "bytes", len(b))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file")
	cmd.Flags().StringVar(&format, "format", "", "json, yaml or binary (default from the output extension)")
	cmd.Flags().StringVar(&escape, "escape", "", "Escape mode stored with the template")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func (a *app) decodeCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "decode FILE",
		Short: "Print the source of an encoded template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			tpl, err := decodeTemplate(b, encodingFor(format, args[0]))
			if err != nil {
				return fmt.Errorf("decoding %s: %w", args[0], err)
			}
			if err := tpl.Compile(); err != nil {
				return err
			}
			a.logger.Info("decoded template", "escape", tpl.Escape())
			_, err = fmt.Fprint(cmd.OutOrStdout(), tpl.Source())
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "json, yaml or binary (default from the file extension)")
	return cmd
}
