package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var outputCmd = &cobra.Command{
	Use:   "output <id>",
	Short: "Print the captured output of the last launch",
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

		var out string
		if b.remote() {
			resp, err := b.client.Get(appPath(id, "output"), nil)
			if err != nil {
				return err
			}
			var body struct {
				Output string `json:"output"`
			}
			if err := resp.Decode(&body); err != nil {
				return err
			}
			out = body.Output
		} else if out, err = b.apps.Output(context.Background(), id); err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	appCmd.AddCommand(outputCmd)
}
