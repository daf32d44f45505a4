package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/shotdrill/internal/drill"
	"github.com/verte-zerg/shotdrill/internal/model"
)

var drillsExportOut string

func newDrillsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drills",
		Short: "Manage saved custom drills",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved drills",
		Args:  cobra.NoArgs,
		RunE:  runDrillsListCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Print a saved drill as YAML",
		Args:  cobra.ExactArgs(1),
		RunE:  runDrillsShowCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Save a drill from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE:  runDrillsImportCmd,
	})
	exportCmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a saved drill to a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE:  runDrillsExportCmd,
	}
	exportCmd.Flags().StringVar(&drillsExportOut, "out", "", "output file (default: stdout)")
	cmd.AddCommand(exportCmd)
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved drill",
		Args:  cobra.ExactArgs(1),
		RunE:  runDrillsDeleteCmd,
	})
	return cmd
}

func runDrillsListCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	drills, err := st.ListDrills(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list drills: %w", err)
	}
	if len(drills) == 0 {
		logErrln("No saved drills. Import one with: shotdrill drills import <file>")
		return nil
	}
	out := cmd.OutOrStdout()
	for _, d := range drills {
		if _, err := fmt.Fprintf(out, "%s  %-24s %2d targets  %s\n", d.ID, d.Name, len(d.Targets), shotSummary(d)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func runDrillsShowCmd(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	d, err := st.GetDrill(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to load drill: %w", err)
	}
	return drill.WriteDrillFile(cmd.OutOrStdout(), d)
}

func runDrillsImportCmd(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open drill file: %w", err)
	}
	d, rerr := drill.ReadDrillFile(f)
	if cerr := f.Close(); cerr != nil {
		logErrf("failed to close %s: %v\n", args[0], cerr)
	}
	if rerr != nil {
		return rerr
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	saved, err := st.SaveDrill(context.Background(), d)
	if err != nil {
		return fmt.Errorf("failed to save drill: %w", err)
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), saved.ID); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runDrillsExportCmd(cmd *cobra.Command, args []string) (err error) {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	d, err := st.GetDrill(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to load drill: %w", err)
	}
	var w io.Writer = cmd.OutOrStdout()
	if drillsExportOut != "" {
		f, createErr := os.Create(drillsExportOut)
		if createErr != nil {
			return fmt.Errorf("failed to create %s: %w", drillsExportOut, createErr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("failed to close %s: %w", drillsExportOut, cerr)
			}
		}()
		w = f
	}
	return drill.WriteDrillFile(w, d)
}

func runDrillsDeleteCmd(_ *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	if err := st.DeleteDrill(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to delete drill: %w", err)
	}
	logErrf("Deleted drill %s\n", args[0])
	return nil
}

// shotSummary lists the distinct distances of a drill, e.g. "25m/50m/100m".
func shotSummary(d model.CustomDrill) string {
	distances := lo.Uniq(lo.Map(d.Targets, func(t model.TargetSpec, _ int) float64 { return t.Distance }))
	parts := lo.Map(distances, func(v float64, _ int) string { return fmt.Sprintf("%gm", v) })
	return strings.Join(parts, "/")
}
