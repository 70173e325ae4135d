package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"launchdeck/internal/models"

	"github.com/spf13/cobra"
)

var launchInstall bool

var launchCmd = &cobra.Command{
	Use:   "launch <id>",
	Short: "Launch an application",
	Long: `Launch an application in its own process group. Python targets run inside
their virtual environment, web entry points get a free port and a URL`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		var install *bool
		if cmd.Flags().Changed("install-deps") {
			install = &launchInstall
		}
		return launchApp(context.Background(), id, install)
	},
}

type launchResponse struct {
	models.LaunchResult
	Code  string `json:"code"`
	Error string `json:"error"`
}

/**
 * Launch a target and print its early output
 * @param {context.Context} ctx - Request context
 * @param {int64} id - Target id
 * @param {*bool} install - Install step override, nil uses the configured default
 * @returns {error} Launch errors; output collected before the failure is still printed
 */
func launchApp(ctx context.Context, id int64, install *bool) error {
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.Close()

	var res *models.LaunchResult
	if b.remote() {
		var body interface{}
		if install != nil {
			body = map[string]bool{"install_dependencies": *install}
		}
		resp, err := b.client.Post(appPath(id, "launch"), body)
		if err != nil {
			return err
		}
		var lr launchResponse
		if len(resp.Body) > 0 {
			if err := json.Unmarshal(resp.Body, &lr); err != nil {
				return fmt.Errorf("invalid launch response: %w", err)
			}
		}
		res = &lr.LaunchResult
		if !resp.OK() {
			printOutput(res.Output)
			return resp.Err()
		}
	} else {
		installDeps := b.apps.InstallDefault()
		if install != nil {
			installDeps = *install
		}
		res, err = b.apps.Launch(ctx, id, installDeps)
		if err != nil {
			if res != nil {
				printOutput(res.Output)
			}
			return err
		}
	}

	fmt.Printf("Application %d started with PID %d\n", id, res.Pid)
	if res.URL != "" {
		fmt.Printf("URL: %s\n", res.URL)
	}
	printOutput(res.Output)
	return nil
}

func printOutput(out string) {
	out = strings.TrimRight(out, "\n")
	if out == "" {
		return
	}
	fmt.Printf("--- Output ---\n%s\n", out)
}

func init() {
	launchCmd.Flags().BoolVar(&launchInstall, "install-deps", false, "Install requirements.txt before starting, overrides launcher.install_dependencies")
	appCmd.AddCommand(launchCmd)
}
