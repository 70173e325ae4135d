package app

import (
	"context"
	"fmt"
	"os"

	"launchdeck/internal/models"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change catalog fields of an application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		upd, err := updateFromFlags(cmd)
		if err != nil {
			return err
		}
		return updateApp(context.Background(), id, upd)
	},
}

// updateFromFlags only sets the fields whose flags were given.
func updateFromFlags(cmd *cobra.Command) (models.TargetUpdate, error) {
	var upd models.TargetUpdate
	flags := cmd.Flags()
	if flags.Changed("name") {
		v, _ := flags.GetString("name")
		upd.Name = &v
	}
	if flags.Changed("path") {
		v, _ := flags.GetString("path")
		upd.Path = &v
	}
	if flags.Changed("type") {
		v, _ := flags.GetString("type")
		typ := models.AppType(v)
		upd.Type = &typ
	}
	if flags.Changed("description") {
		v, _ := flags.GetString("description")
		upd.Description = &v
	}
	if flags.Changed("guide-file") {
		file, _ := flags.GetString("guide-file")
		data, err := os.ReadFile(file)
		if err != nil {
			return upd, fmt.Errorf("failed to read user guide: %w", err)
		}
		guide := string(data)
		upd.UserGuide = &guide
	}
	return upd, nil
}

func updateApp(ctx context.Context, id int64, upd models.TargetUpdate) error {
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.Close()

	var t *models.Target
	if b.remote() {
		resp, err := b.client.Put(appPath(id, ""), upd)
		if err != nil {
			return err
		}
		t = &models.Target{}
		if err := resp.Decode(t); err != nil {
			return err
		}
	} else if t, err = b.apps.Update(ctx, id, upd); err != nil {
		return err
	}
	printTarget(t)
	return nil
}

func init() {
	updateCmd.Flags().String("name", "", "New display name")
	updateCmd.Flags().String("path", "", "New path")
	updateCmd.Flags().String("type", "", "New type: executable, script or web")
	updateCmd.Flags().String("description", "", "New description")
	updateCmd.Flags().String("guide-file", "", "File whose content replaces the user guide")
	appCmd.AddCommand(updateCmd)
}
