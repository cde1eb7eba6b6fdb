package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func (a *app) storeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage templates in the template store",
	}

	var escape string
	put := &cobra.Command{
		Use:   "put NAME FILE",
		Short: "Store a template file under NAME",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl, err := a.openTemplate(cmd, args[1], escape)
			if err != nil {
				return err
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.Put(cmd.Context(), args[0], tpl); err != nil {
				return err
			}
			a.logger.Info("stored template", "name", args[0], "escape", tpl.Escape())
			return nil
		},
	}
	put.Flags().StringVar(&escape, "escape", "", "Escape mode stored with the template")

	get := &cobra.Command{
		Use:   "get NAME",
		Short: "Print a stored template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			tpl, err := s.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), tpl.Source())
			return err
		},
	}

	ls := &cobra.Command{
		Use:   "ls",
		Short: "List stored templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			entries, err := s.List(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tESCAPE\tSIZE\tUPDATED")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", e.Name, e.Escape, e.Size, e.UpdatedAt.UTC().Format(time.RFC3339))
			}
			return w.Flush()
		},
	}

	rm := &cobra.Command{
		Use:   "rm NAME",
		Short: "Delete a stored template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			return s.Delete(cmd.Context(), args[0])
		},
	}

	cmd.AddCommand(put, get, ls, rm)
	return cmd
}
