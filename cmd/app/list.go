package app

import (
	"context"

	"launchdeck/internal/models"

	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered applications",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listApps(context.Background())
	},
}

func listApps(ctx context.Context) error {
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.Close()

	targets, err := fetchTargets(ctx, b)
	if err != nil {
		return err
	}
	if listJSON {
		return printJSON(targets)
	}
	printTargets(targets)
	return nil
}

func fetchTargets(ctx context.Context, b *backend) ([]*models.Target, error) {
	if b.remote() {
		resp, err := b.client.Get("/api/v1/apps", nil)
		if err != nil {
			return nil, err
		}
		var targets []*models.Target
		return targets, resp.Decode(&targets)
	}
	return b.apps.List(ctx)
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print JSON instead of a table")
	appCmd.AddCommand(listCmd)
}
