package app

import (
	"context"
	"fmt"

	"launchdeck/internal/models"

	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop <id>",
	Short: "Stop an application and every process it started",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return stopApp(context.Background(), id)
	},
}

func stopApp(ctx context.Context, id int64) error {
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.Close()

	var res *models.StopResult
	if b.remote() {
		resp, err := b.client.Post(appPath(id, "stop"), nil)
		if err != nil {
			return err
		}
		res = &models.StopResult{}
		if err := resp.Decode(res); err != nil {
			return err
		}
	} else if res, err = b.apps.Stop(ctx, id); err != nil {
		return err
	}

	if len(res.TerminatedPids) == 0 {
		fmt.Printf("Application %d stopped, no process was left to terminate\n", id)
		return nil
	}
	fmt.Printf("Application %d stopped. Terminated PIDs: %v\n", id, res.TerminatedPids)
	return nil
}

func init() {
	appCmd.AddCommand(stopCmd)
}
