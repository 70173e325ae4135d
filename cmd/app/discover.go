package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"launchdeck/cmd/root"
	"launchdeck/internal/models"

	"github.com/spf13/cobra"
)

var (
	discoverDryRun  bool
	discoverVerbose bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover <directory>",
	Short: "Find Django and Flask apps below a directory and register them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return discoverApps(context.Background(), args[0])
	},
}

/**
 * Scan a directory for web apps
 * @param {context.Context} ctx - Cancels the scan
 * @param {string} dir - Directory to scan
 * @returns {error} Scan or store errors
 * @description
 * - --dry-run lists what would be registered
 * - dir is made absolute before it is sent to the server
 */
func discoverApps(ctx context.Context, dir string) error {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.Close()

	var res *models.DiscoverResult
	if b.remote() {
		resp, err := b.client.Post("/api/v1/discover", map[string]interface{}{
			"directory": dir,
			"dry_run":   discoverDryRun,
		})
		if err != nil {
			return err
		}
		res = &models.DiscoverResult{}
		if err := resp.Decode(res); err != nil {
			return err
		}
	} else if res, err = b.apps.Discover(ctx, dir, discoverDryRun); err != nil {
		return err
	}

	if discoverVerbose {
		for _, line := range res.Log {
			fmt.Println(line)
		}
	}
	for _, reg := range res.Found {
		fmt.Printf("Found %s: %s\n", reg.Name, reg.Path)
	}
	if discoverDryRun {
		fmt.Printf("%d applications found, nothing registered (dry run)\n", len(res.Found))
		return nil
	}
	fmt.Printf("%d found, %d registered, %d already in the catalog\n", len(res.Found), len(res.Registered), res.Skipped)
	return nil
}

var cleanupMinutes int

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove applications registered in the last minutes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cleanupRecent(context.Background(), cleanupMinutes)
	},
}

func cleanupRecent(ctx context.Context, minutes int) error {
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.Close()

	var removed []*models.Target
	if b.remote() {
		resp, err := b.client.Post("/api/v1/cleanup", map[string]int{"minutes": minutes})
		if err != nil {
			return err
		}
		var body struct {
			Targets []*models.Target `json:"targets"`
		}
		if err := resp.Decode(&body); err != nil {
			return err
		}
		removed = body.Targets
	} else if removed, err = b.apps.CleanupRecent(ctx, minutes); err != nil {
		return err
	}

	for _, t := range removed {
		fmt.Printf("Removed %s (id %d, registered %s)\n", t.Name, t.ID, t.CreatedAt.Local().Format(time.DateTime))
	}
	fmt.Printf("%d applications removed\n", len(removed))
	return nil
}

func init() {
	discoverCmd.Flags().BoolVar(&discoverDryRun, "dry-run", false, "Only list what would be registered")
	discoverCmd.Flags().BoolVarP(&discoverVerbose, "verbose", "v", false, "Print every directory visited")
	cleanupCmd.Flags().IntVar(&cleanupMinutes, "minutes", 5, "Window in minutes")
	root.RootCmd.AddCommand(discoverCmd)
	root.RootCmd.AddCommand(cleanupCmd)

	discoverCmd.Example = `  launchdeck discover ~/projects --dry-run`
}
