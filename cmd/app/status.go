package app

import (
	"context"
	"fmt"

	"launchdeck/internal/models"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <id>",
	Short: "Show the stored status without touching the OS",
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

		var status models.AppStatus
		if b.remote() {
			resp, err := b.client.Get(appPath(id, "status"), nil)
			if err != nil {
				return err
			}
			var body struct {
				Status models.AppStatus `json:"status"`
			}
			if err := resp.Decode(&body); err != nil {
				return err
			}
			status = body.Status
		} else if status, err = b.apps.Status(context.Background(), id); err != nil {
			return err
		}
		fmt.Println(status)
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <id>",
	Short: "Reconcile the status with the running processes and bound ports",
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

		var res *models.StatusResult
		if b.remote() {
			resp, err := b.client.Get(appPath(id, "check_status"), nil)
			if err != nil {
				return err
			}
			res = &models.StatusResult{}
			if err := resp.Decode(res); err != nil {
				return err
			}
		} else if res, err = b.apps.CheckStatus(context.Background(), id); err != nil {
			return err
		}

		fmt.Println(res.Status)
		if res.URL != "" {
			fmt.Printf("URL: %s\n", res.URL)
		}
		return nil
	},
}

func init() {
	appCmd.AddCommand(statusCmd)
	appCmd.AddCommand(checkCmd)
}
