package app

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var rateCmd = &cobra.Command{
	Use:   "rate <id> <1-5>",
	Short: "Rate an application",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		rating, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("Rating must be between 1 and 5")
		}
		return rateApp(context.Background(), id, rating)
	},
}

func rateApp(ctx context.Context, id int64, rating int) error {
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.Close()

	if b.remote() {
		resp, err := b.client.Post(appPath(id, "rate"), map[string]int{"rating": rating})
		if err != nil {
			return err
		}
		var body struct {
			Rating int `json:"rating"`
		}
		if err := resp.Decode(&body); err != nil {
			return err
		}
		rating = body.Rating
	} else if rating, err = b.apps.Rate(ctx, id, rating); err != nil {
		return err
	}
	fmt.Printf("Application %d rated %d\n", id, rating)
	return nil
}

func init() {
	appCmd.AddCommand(rateCmd)
}
