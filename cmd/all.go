package cmd

import (
	_ "launchdeck/cmd/app"
	_ "launchdeck/cmd/misc"
	_ "launchdeck/cmd/root"
	_ "launchdeck/cmd/server"
)
