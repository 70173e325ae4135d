package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"launchdeck/internal/models"

	"github.com/spf13/cobra"
)

var logsLimit int

var logsCmd = &cobra.Command{
	Use:   "logs <id>",
	Short: "Show the execution log of an application, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		var logs []models.ExecutionLog
		if b.remote() {
			resp, err := b.client.Get(appPath(id, "logs"), map[string]interface{}{"limit": logsLimit})
			if err != nil {
				return err
			}
			if err := resp.Decode(&logs); err != nil {
				return err
			}
		} else if logs, err = b.apps.Logs(context.Background(), id, logsLimit); err != nil {
			return err
		}

		if len(logs) == 0 {
			fmt.Println("No log entries")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "Time\tAction\tDetails")
		for _, l := range logs {
			fmt.Fprintf(w, "%s\t%s\t%s\n", l.Timestamp.Local().Format("2006-01-02 15:04:05"), l.Action, l.Details)
		}
		w.Flush()
		return nil
	},
}

func init() {
	logsCmd.Flags().IntVarP(&logsLimit, "limit", "n", 50, "Number of entries to show")
	appCmd.AddCommand(logsCmd)
}
