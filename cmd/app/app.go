package app

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"launchdeck/cmd/root"
	"launchdeck/internal/models"
	"launchdeck/internal/rpc"
	"launchdeck/internal/utils"
	"launchdeck/services"

	"github.com/iancoleman/orderedmap"
	"github.com/spf13/cobra"
)

var appCmd = &cobra.Command{
	Use:   "app",
	Short: "Catalog and lifecycle operations (list/add/launch/stop etc.)",
	Long:  `Catalog and lifecycle operations (list/add/launch/stop etc.)`,
}

const appExample = `  # register a script and launch it
  launchdeck app add ./tools/report.py --name report
  launchdeck app launch 1`

// backend is either a client of the running server or the in-process manager.
type backend struct {
	client rpc.HTTPClient
	apps   *services.AppManager
}

/**
 * Pick where a command runs
 * @returns {*backend} Server client when one answers, otherwise the local manager
 * @returns {error} Error if the local catalog can't be opened
 * @description
 * - --local skips the server probe
 */
func openBackend() (*backend, error) {
	if !root.Local {
		if client, ok := rpc.Connect(); ok {
			return &backend{client: client}, nil
		}
	}
	apps, err := services.GetAppManager()
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	return &backend{apps: apps}, nil
}

func (b *backend) remote() bool {
	return b.client != nil
}

func (b *backend) Close() {
	if b.client != nil {
		b.client.Close()
	}
	if b.apps != nil {
		b.apps.Close()
	}
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid target id: %s", arg)
	}
	return id, nil
}

func appPath(id int64, action string) string {
	if action == "" {
		return fmt.Sprintf("/api/v1/apps/%d", id)
	}
	return fmt.Sprintf("/api/v1/apps/%d/%s", id, action)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type targetColumns struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Status string `json:"status"`
	Port   string `json:"port"`
	Rating string `json:"rating"`
	Path   string `json:"path"`
}

func printTargets(targets []*models.Target) {
	if len(targets) == 0 {
		fmt.Println("No applications registered")
		return
	}
	var dataList []*orderedmap.OrderedMap
	for _, t := range targets {
		row := targetColumns{
			ID:     t.ID,
			Name:   t.Name,
			Type:   string(t.Type),
			Status: string(t.Status),
			Port:   orDash(t.Port),
			Rating: orDash(t.Rating),
			Path:   t.Path,
		}
		recordMap, _ := utils.StructToOrderedMap(row)
		dataList = append(dataList, recordMap)
	}
	utils.PrintFormat(dataList)
}

func printTarget(t *models.Target) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%d\n", t.ID)
	fmt.Fprintf(w, "Name:\t%s\n", t.Name)
	fmt.Fprintf(w, "Type:\t%s\n", t.Type)
	fmt.Fprintf(w, "Path:\t%s\n", t.Path)
	fmt.Fprintf(w, "Status:\t%s\n", t.Status)
	fmt.Fprintf(w, "Port:\t%s\n", orDash(t.Port))
	if url := t.URL(); url != "" {
		fmt.Fprintf(w, "URL:\t%s\n", url)
	}
	fmt.Fprintf(w, "Rating:\t%s\n", orDash(t.Rating))
	fmt.Fprintf(w, "Description:\t%s\n", t.Description)
	fmt.Fprintf(w, "Registered:\t%s\n", t.CreatedAt.Format("2006-01-02 15:04:05"))
	w.Flush()
	if t.UserGuide != "" {
		fmt.Printf("\n--- User guide ---\n%s\n", t.UserGuide)
	}
}

func orDash(n int) string {
	if n == 0 {
		return "-"
	}
	return strconv.Itoa(n)
}

func init() {
	root.RootCmd.AddCommand(appCmd)

	appCmd.Example = appExample
}
