package main

import (
	"github.com/spf13/cobra"

	"github.com/jbweber/herd/internal/batch"
	"github.com/jbweber/herd/internal/loader"
)

func newApplyCmd(a *app) *cobra.Command {
	var (
		filename   string
		statusFile string
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Run a batch from a manifest",
		Long: `Run the batch described by a herd.io/v1alpha1 Batch manifest.

The manifest names the node, the VMID range, the operation and, for clones,
the source and naming. spec.concurrency overrides --concurrency when set.
Use "-f -" to read the manifest from stdin.`,
		Example: `  herd apply -f lab-refresh.yaml
  herd apply -f lab-refresh.yaml --status-file lab-refresh.status.yaml -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := loader.LoadFromFile(filename)
			if err != nil {
				return err
			}

			job, err := batch.JobFromManifest(manifest)
			if err != nil {
				return err
			}

			return a.runBatch(cmd.Context(), job, runSettings{
				name:        manifest.Name,
				concurrency: manifest.Spec.Concurrency,
				statusFile:  statusFile,
				manifest:    manifest,
			})
		},
	}

	cmd.Flags().StringVarP(&filename, "filename", "f", "", "path to the Batch manifest")
	cmd.Flags().StringVar(&statusFile, "status-file", "", "write the manifest with its final status to this path")
	_ = cmd.MarkFlagRequired("filename")

	return cmd
}
