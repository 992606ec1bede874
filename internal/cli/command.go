package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"nodemanager/internal/control"
	"nodemanager/internal/fleet"
	"nodemanager/internal/scan"
)

var rebootCmd = &cobra.Command{
	Use:   "reboot",
	Short: "Reboot every node on the segment",
	RunE:  runFleetCommand(control.CommandReboot),
}

var shutdownCmd = &cobra.Command{
	Use:   "shutdown",
	Short: "Shut down every node on the segment",
	RunE:  runFleetCommand(control.CommandShutdown),
}

func init() {
	for _, cmd := range []*cobra.Command{rebootCmd, shutdownCmd} {
		addScanFlags(cmd)
		cmd.Flags().Bool("yes", false, "skip the confirmation prompt")
	}
}

// runFleetCommand scans the segment, selects everything found, and
// dispatches the command. Nodes that accept it drop out of the printed
// summary as removed; failures are listed but never abort the run.
func runFleetCommand(command string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		found, err := scan.New().Scan(ctx, scan.Config{
			Prefix:  cfg.Prefix,
			Port:    cfg.ScanPort,
			Timeout: cfg.ScanTimeout,
			Workers: cfg.ScanWorkers,
		})
		if err != nil {
			return err
		}
		if len(found) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No nodes found.")
			return nil
		}

		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			fmt.Fprintf(cmd.OutOrStdout(), "About to %s %d node(s). Re-run with --yes to proceed.\n", command, len(found))
			for _, target := range found {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s:%d\n", target.Address, target.Port)
			}
			return nil
		}

		registry := fleet.NewRegistry()
		nodes := make([]fleet.Node, len(found))
		for i, target := range found {
			nodes[i] = fleet.Node{Address: target.Address, Port: target.Port}
		}
		registry.Merge(nodes)
		registry.SetAllSelected(true)

		client := control.NewClient(cfg.NameTimeout, cfg.CommandTimeout)
		outcomes, err := control.NewDispatcher(registry, client).Dispatch(ctx, command)
		if err != nil {
			return err
		}

		for _, outcome := range outcomes {
			if outcome.Removed {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s accepted\n", outcome.Address, command)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: failed (%s)\n", outcome.Address, outcome.Failure)
			}
		}
		return nil
	}
}
