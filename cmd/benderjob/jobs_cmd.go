// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/benderfarm/benderjob/internal/atomizer"
	"github.com/benderfarm/benderjob/internal/bouncer"
	"github.com/benderfarm/benderjob/internal/config"
	"github.com/benderfarm/benderjob/internal/gaffer"
	"github.com/benderfarm/benderjob/internal/job"
	"github.com/benderfarm/benderjob/internal/watch"
)

// loadJob resolves a job argument: an absolute path is read as an upload
// directory, anything else as a submission id below <root>/blendfiles.
func loadJob(cfg config.Config, arg string) (*job.Job, error) {
	if filepath.IsAbs(arg) {
		return job.FromUploadDir(arg)
	}
	return job.FromUploadDir(filepath.Join(cfg.Root, "blendfiles", arg))
}

func newSubmitCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	var (
		email     string
		animation bool
	)

	cmd := &cobra.Command{
		Use:   "submit <scene.blend>",
		Short: "Copy a scene file into a fresh upload directory and create its descriptor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			j, err := watch.Ingest(cfg.Root, args[0], email, animation)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), j.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "submitter email for status updates")
	cmd.Flags().BoolVar(&animation, "animation", false, "render the full frame range instead of the current frame")
	return cmd
}

func newListCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all descriptors below the root",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			jobs := job.ReadAll(filepath.Join(cfg.Root, "blendfiles"))
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tTASKS\tCREATED\tBLEND")
			for _, j := range jobs {
				created := ""
				if j.Time.Creation != nil {
					created = j.Time.Creation.Format(time.RFC3339)
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
					j.ID, j.Status, len(j.Tasks), created, j.Paths.Filename)
			}
			return w.Flush()
		},
	}
}

func newShowCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|dir>",
		Short: "Print a descriptor's sidecar JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			j, err := loadJob(cfg, args[0])
			if err != nil {
				return err
			}
			raw, err := j.Serialize()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			return nil
		},
	}
}

func newValidateCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <id|dir>",
		Short: "Run the scene validity check on a descriptor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			j, err := loadJob(cfg, args[0])
			if err != nil {
				return err
			}
			bouncer.Check(j, bouncer.DefaultCheck)
			if err := j.SaveIfChanged(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), j.Status)
			return nil
		},
	}
}

func newScanCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "scan <id|dir>",
		Short: "Scan a validated descriptor for render parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			j, err := loadJob(cfg, args[0])
			if err != nil {
				return err
			}

			ctx, cancel := timeoutContext(cmd, timeout)
			defer cancel()

			gaffer.ScanAndOptimize(ctx, j, gaffer.Options{ScriptPath: cfg.ScanScript})
			if err := j.SaveIfChanged(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), j.Status)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "abort the scene probe after this duration")
	return cmd
}

func newAtomizeCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	var chunkSize int

	cmd := &cobra.Command{
		Use:   "atomize <id|dir>",
		Short: "Decompose a scanned descriptor into render tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			j, err := loadJob(cfg, args[0])
			if err != nil {
				return err
			}
			atomizer.Atomize(j, chunkSize, cfg)
			if err := j.SaveIfChanged(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d tasks)\n", j.Status, len(j.Tasks))
			return nil
		},
	}

	cmd.Flags().IntVar(&chunkSize, "chunk-size", 1, "frames per task for animations")
	return cmd
}
