// SPDX-License-Identifier: MIT

// benderjob is the render-farm submission tool: it watches for uploads,
// creates descriptors and drives them through the request phase.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/benderfarm/benderjob/internal/config"
	xglog "github.com/benderfarm/benderjob/internal/log"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "benderjob",
		Short:         "Manage render-job submissions on a bender farm",
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (YAML)")

	loadConfig := func() (config.Config, error) {
		cfg, err := config.NewLoader(configPath).Load()
		if err != nil {
			return cfg, err
		}
		xglog.Configure(xglog.Config{
			Level:   cfg.LogLevel,
			Service: "benderjob",
			Version: version,
		})
		return cfg, nil
	}

	root.AddCommand(
		newWatchCmd(loadConfig),
		newSubmitCmd(loadConfig),
		newListCmd(loadConfig),
		newShowCmd(loadConfig),
		newValidateCmd(loadConfig),
		newScanCmd(loadConfig),
		newAtomizeCmd(loadConfig),
	)
	return root
}
