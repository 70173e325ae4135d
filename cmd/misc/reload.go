package misc

import (
	"fmt"

	"launchdeck/cmd/root"
	"launchdeck/internal/rpc"

	"github.com/spf13/cobra"
)

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload server configuration",
	Long:  `Ask the running server to re-read its configuration file`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return reloadServerConfig()
	},
}

/**
 * Reload server configuration through the API
 * @returns {error} Connection or API errors
 * @description
 * - Calls POST /api/v1/reload
 * - Listeners, database and port range stay as they were at startup
 */
func reloadServerConfig() error {
	client := rpc.NewHTTPClient(nil)
	defer client.Close()

	resp, err := client.Post("/api/v1/reload", nil)
	if err != nil {
		return fmt.Errorf("failed to reach the launchdeck server: %w", err)
	}
	if err := resp.Err(); err != nil {
		return fmt.Errorf("server returned error(%d): %w", resp.StatusCode, err)
	}
	fmt.Printf("Successfully reloaded server configuration, status code: %d\n", resp.StatusCode)
	return nil
}

func init() {
	root.RootCmd.AddCommand(reloadCmd)
}
