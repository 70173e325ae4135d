package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"launchdeck/internal/models"

	"github.com/spf13/cobra"
)

var (
	addName        string
	addType        string
	addDescription string
	addGuideFile   string
)

var addCmd = &cobra.Command{
	Use:   "add <path>",
	Short: "Register an executable, script or web entry point",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return addApp(context.Background(), args[0])
	},
}

/**
 * Register one target
 * @param {context.Context} ctx - Request context
 * @param {string} path - Target path, made absolute before it is sent
 * @returns {error} Validation or store errors
 * @description
 * - The name defaults to the file name without extension
 * - The type is derived from the extension when --type is empty
 */
func addApp(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	reg := models.Registration{
		Name:        addName,
		Path:        abs,
		Type:        models.AppType(addType),
		Description: addDescription,
	}
	if reg.Name == "" {
		reg.Name = strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	}
	if addGuideFile != "" {
		data, err := os.ReadFile(addGuideFile)
		if err != nil {
			return fmt.Errorf("failed to read user guide: %w", err)
		}
		reg.UserGuide = string(data)
	}

	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.Close()

	var t *models.Target
	if b.remote() {
		resp, err := b.client.Post("/api/v1/apps", reg)
		if err != nil {
			return err
		}
		t = &models.Target{}
		if err := resp.Decode(t); err != nil {
			return err
		}
	} else if t, err = b.apps.Register(ctx, reg); err != nil {
		return err
	}
	fmt.Printf("Registered %s as application %d (%s)\n", t.Name, t.ID, t.Type)
	return nil
}

func init() {
	addCmd.Flags().StringVar(&addName, "name", "", "Display name, defaults to the file name")
	addCmd.Flags().StringVar(&addType, "type", "", "executable, script or web, derived from the extension when empty")
	addCmd.Flags().StringVar(&addDescription, "description", "", "Short description")
	addCmd.Flags().StringVar(&addGuideFile, "guide-file", "", "File whose content becomes the user guide")
	appCmd.AddCommand(addCmd)
}
