package app

import (
	"context"

	"launchdeck/internal/models"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one application with its user guide",
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

		t, err := fetchTarget(context.Background(), b, id)
		if err != nil {
			return err
		}
		printTarget(t)
		return nil
	},
}

func fetchTarget(ctx context.Context, b *backend, id int64) (*models.Target, error) {
	if b.remote() {
		resp, err := b.client.Get(appPath(id, ""), nil)
		if err != nil {
			return nil, err
		}
		t := &models.Target{}
		return t, resp.Decode(t)
	}
	return b.apps.Get(ctx, id)
}

func init() {
	appCmd.AddCommand(showCmd)
}
