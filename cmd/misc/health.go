package misc

import (
	"fmt"
	"os"
	"text/tabwriter"

	"launchdeck/cmd/root"
	"launchdeck/internal/models"
	"launchdeck/internal/rpc"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show whether the server is up, with its counters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := rpc.NewHTTPClient(nil)
		defer client.Close()

		resp, err := client.Get("/healthz", nil)
		if err != nil {
			return fmt.Errorf("launchdeck server is not running: %w", err)
		}
		var health models.HealthResponse
		if err := resp.Decode(&health); err != nil {
			return err
		}
		printHealth(&health)
		return nil
	},
}

func printHealth(h *models.HealthResponse) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Status:\t%s\n", h.Status)
	fmt.Fprintf(w, "Version:\t%s\n", h.Version)
	fmt.Fprintf(w, "Started:\t%s\n", h.StartTime)
	fmt.Fprintf(w, "Uptime:\t%s\n", h.Uptime)
	fmt.Fprintf(w, "Requests:\t%d (%d errors)\n", h.Metrics.TotalRequests, h.Metrics.ErrorRequests)
	fmt.Fprintf(w, "Applications:\t%d (%d running)\n", h.Metrics.TotalTargets, h.Metrics.RunningTargets)
	fmt.Fprintf(w, "Ports in use:\t%d\n", h.Metrics.PortsInUse)
	w.Flush()
}

func init() {
	root.RootCmd.AddCommand(healthCmd)
}
