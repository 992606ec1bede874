package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"nodemanager/internal/control"
	"nodemanager/internal/fleet"
	"nodemanager/internal/scan"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the local segment for nodes",
	Long: `Scan probes suffixes 1-254 of the local /24 (or --prefix) on the
control port and lists every node that answered. With --names each
node's display name is fetched from its API as well.`,
	RunE: runScan,
}

func init() {
	addScanFlags(scanCmd)
	scanCmd.Flags().Bool("names", false, "fetch each node's display name")
	scanCmd.Flags().Bool("details", false, "gather latency/MAC/mDNS details per node")
	scanCmd.Flags().Bool("json", false, "print JSON instead of a table")
}

func runScan(cmd *cobra.Command, args []string) error {
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

	registry := fleet.NewRegistry()
	nodes := make([]fleet.Node, len(found))
	for i, target := range found {
		nodes[i] = fleet.Node{Address: target.Address, Port: target.Port}
	}
	registry.Merge(nodes)

	if names, _ := cmd.Flags().GetBool("names"); names {
		client := control.NewClient(cfg.NameTimeout, cfg.CommandTimeout)
		control.NewRefresher(registry, client, cfg.RefreshInterval, nil).RefreshOnce(ctx)
	}
	if details, _ := cmd.Flags().GetBool("details"); details {
		for _, node := range registry.Snapshot() {
			registry.SetDetails(node.Address, scan.Collect(ctx, node.Address))
		}
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(registry.Snapshot())
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ADDRESS\tPORT\tNAME")
	for _, node := range registry.Snapshot() {
		fmt.Fprintf(w, "%s\t%d\t%s\n", node.Address, node.Port, node.Name)
	}
	return w.Flush()
}
