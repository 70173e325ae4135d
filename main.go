package main

import (
	"os"

	_ "launchdeck/cmd"
	"launchdeck/cmd/root"
	"launchdeck/internal/config"
	"launchdeck/internal/logger"
)

func main() {
	isServerMode := len(os.Args) > 1 && os.Args[1] == "server"

	cfg := config.App()
	logger.InitLoggerWithMode(&cfg.Log, isServerMode)

	if err := root.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
