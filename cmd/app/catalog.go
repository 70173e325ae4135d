package app

import (
	"context"
	"fmt"
	"os"

	"launchdeck/internal/catalog"
	"launchdeck/internal/models"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Register the applications listed in a catalog file",
	Long:  "Register the applications listed in a catalog file. Paths already in the catalog are skipped, relative paths resolve against the file's directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return importCatalog(context.Background(), args[0])
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [file.yaml]",
	Short: "Write the catalog as YAML, to stdout when no file is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := ""
		if len(args) == 1 {
			file = args[0]
		}
		return exportCatalog(context.Background(), file)
	},
}

func importCatalog(ctx context.Context, file string) error {
	f, err := catalog.ReadFile(file)
	if err != nil {
		return err
	}
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.Close()

	res := &models.DiscoverResult{}
	if b.remote() {
		resp, err := b.client.Post("/api/v1/import", map[string]interface{}{"apps": f.Apps})
		if err != nil {
			return err
		}
		if err := resp.Decode(res); err != nil {
			return err
		}
	} else if res.Registered, res.Skipped, err = b.apps.RegisterAll(ctx, f.Apps); err != nil {
		return err
	}

	for _, t := range res.Registered {
		fmt.Printf("Registered %s as application %d\n", t.Name, t.ID)
	}
	fmt.Printf("%d registered, %d skipped\n", len(res.Registered), res.Skipped)
	return nil
}

func exportCatalog(ctx context.Context, file string) error {
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.Close()

	targets, err := fetchTargets(ctx, b)
	if err != nil {
		return err
	}
	f := catalog.FromTargets(targets)
	if file == "" {
		return catalog.Encode(os.Stdout, f)
	}
	if err := catalog.WriteFile(file, f); err != nil {
		return err
	}
	fmt.Printf("Exported %d applications to %s\n", len(f.Apps), file)
	return nil
}

func init() {
	appCmd.AddCommand(importCmd)
	appCmd.AddCommand(exportCmd)
}
