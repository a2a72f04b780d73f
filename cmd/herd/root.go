package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jbweber/herd/internal/config"
	"github.com/jbweber/herd/internal/logging"
	"github.com/jbweber/herd/internal/metrics"
	"github.com/jbweber/herd/internal/report"
	"github.com/jbweber/herd/internal/vm"
)

// flagKeys maps persistent flags to their config keys.
var flagKeys = map[string]string{
	"url":              "url",
	"insecure":         "insecure",
	"user":             "auth.username",
	"realm":            "auth.realm",
	"password":         "auth.password",
	"node":             "node",
	"concurrency":      "concurrency",
	"pipeline-timeout": "pipeline_timeout",
	"request-timeout":  "request_timeout",
	"poll-timeout":     "poll.timeout",
	"log-level":        "log.level",
	"log-format":       "log.format",
	"output":           "output",
	"metrics-file":     "metrics_file",
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{
		v:      viper.New(),
		stdin:  stdin,
		stdout: stdout,

		stderr:      newLockedWriter(stderr),
		stderrColor: report.IsTerminal(stderr),
	}
	config.SetDefaults(a.v)
	config.BindEnv(a.v)

	var configPath string

	cmd := &cobra.Command{
		Use:   "herd",
		Short: "Herd - bulk lifecycle operations for Proxmox VE guests",
		Long: `Herd clones, destroys, starts and stops Proxmox VE guests in bulk.

A command targets one VMID or an inclusive range of VMIDs on a node. Each
target is resolved to a QEMU virtual machine or an LXC container, the
request is submitted, and the resulting task is polled until it finishes.
Targets run concurrently up to --concurrency, and one failing target never
stops the others.

Settings are read from flags, HERD_* environment variables and
` + config.ConfigFile() + `, in that order of precedence.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !needsConfig(cmd) {
				return nil
			}
			return a.load(configPath)
		},
	}
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(a.stderr)

	defaults := config.Default()
	flags := cmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default "+config.ConfigFile()+")")
	flags.String("url", "", "Proxmox VE API URL, e.g. https://pve1:8006")
	flags.Bool("insecure", false, "skip TLS certificate verification")
	flags.String("user", "", "API user, with or without @realm")
	flags.String("realm", defaults.Auth.Realm, "authentication realm used when --user has none")
	flags.String("password", "", "API password (prompted for when unset and stdin is a terminal)")
	flags.String("node", "", "cluster node that owns the targets")
	flags.IntP("concurrency", "c", defaults.Concurrency, "number of targets processed at once")
	flags.Duration("pipeline-timeout", defaults.PipelineTimeout, "deadline for one target, 0 to disable")
	flags.Duration("request-timeout", defaults.RequestTimeout, "deadline for one API request, 0 to disable")
	flags.Duration("poll-timeout", defaults.Poll.Timeout, "deadline for one task to finish, 0 to disable")
	flags.String("log-level", defaults.Log.Level, "log level: debug, info, warn, error")
	flags.String("log-format", defaults.Log.Format, "log format: text, json")
	flags.StringP("output", "o", defaults.Output, "result format: table, yaml, json")
	flags.String("metrics-file", "", "write prometheus metrics in textfile format to this path")
	flags.BoolVar(&a.noHeaders, "no-headers", false, "omit the header row in table output")

	flags.VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			_ = a.v.BindPFlag(key, f)
		}
	})

	cmd.AddCommand(newCloneCmd(a))
	cmd.AddCommand(newLifecycleCmd(a, vm.OpDestroy))
	cmd.AddCommand(newLifecycleCmd(a, vm.OpStart))
	cmd.AddCommand(newLifecycleCmd(a, vm.OpStop))
	cmd.AddCommand(newApplyCmd(a))
	cmd.AddCommand(newTestConnCmd(a))

	return cmd
}

// needsConfig reports whether cmd talks to the API. Help and shell
// completion work without a configured endpoint.
func needsConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return false
		}
	}
	return true
}

// load reads the configuration and builds the logger and metrics recorder.
func (a *app) load(configPath string) error {
	if err := config.ReadFile(a.v, configPath); err != nil {
		return err
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}

	log, err := logging.New(a.stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	a.metrics = metrics.New()
	return nil
}
