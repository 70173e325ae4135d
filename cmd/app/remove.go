package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Stop an application if needed and delete it from the catalog",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return removeApp(context.Background(), id)
	},
}

func removeApp(ctx context.Context, id int64) error {
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.Close()

	if b.remote() {
		resp, err := b.client.Delete(appPath(id, ""), nil)
		if err != nil {
			return err
		}
		if err := resp.Err(); err != nil {
			return err
		}
	} else if err := b.apps.Remove(ctx, id); err != nil {
		return err
	}
	fmt.Printf("Application %d removed\n", id)
	return nil
}

func init() {
	appCmd.AddCommand(removeCmd)
}
