package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	yaml "gopkg.in/yaml.v2"

	"github.com/perdasilva/ormodel/api/v1alpha1"
	"github.com/perdasilva/ormodel/controllers"
	"github.com/perdasilva/ormodel/pkg/config"
	"github.com/perdasilva/ormodel/pkg/datasets"
	"github.com/perdasilva/ormodel/pkg/report"
	"github.com/perdasilva/ormodel/pkg/table"
	"github.com/perdasilva/ormodel/pkg/tasks/all"
)

var (
	configFile  string
	envFile     string
	metricsAddr string

	runDataset      string
	runMode         string
	runEngine       string
	runMaxSolutions int
	runTimeLimit    time.Duration
	runStatus       bool
)

var errRunFailed = errors.New("run did not succeed")

func main() {
	root := &cobra.Command{
		Use:           "ormodel",
		Short:         "Compile and solve the built-in optimization tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with ORMODEL_* settings")

	runCmd := &cobra.Command{
		Use:   "run TASK",
		Short: "Run a task over a dataset and print its report",
		Args:  cobra.ExactArgs(1),
		RunE:  runTask,
	}
	runCmd.Flags().StringVar(&runDataset, "dataset", "", "dataset name (default: the task's own)")
	runCmd.Flags().StringVar(&runMode, "mode", "", "single or enumerate (default: the task's own)")
	runCmd.Flags().StringVar(&runEngine, "engine", "", "sat or mip (overrides config)")
	runCmd.Flags().IntVar(&runMaxSolutions, "max-solutions", 0, "stop enumerating after this many solutions")
	runCmd.Flags().DurationVar(&runTimeLimit, "time-limit", 0, "time limit per solve")
	runCmd.Flags().BoolVar(&runStatus, "status", false, "print the run record as YAML after the report")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while running")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks and datasets",
		Args:  cobra.NoArgs,
		RunE:  list,
	}

	showCmd := &cobra.Command{
		Use:   "show DATASET",
		Short: "Print a dataset as YAML",
		Args:  cobra.ExactArgs(1),
		RunE:  show,
	}

	root.AddCommand(runCmd, listCmd, showCmd)
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return nil, err
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func setup() (*config.Config, *zap.Logger, datasets.Loader, error) {
	cfg, err := config.Load(configFile, envFile)
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, err
	}
	loader, err := datasets.NewLoader(cfg.Data)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, loader, nil
}

func runTask(cmd *cobra.Command, args []string) error {
	cfg, logger, loader, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	defer loader.Close()

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
		defer srv.Close()
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	spec := cfg.RunSpec(args[0], runDataset, v1alpha1.Mode(runMode))
	if runEngine != "" {
		spec.Engine = runEngine
	}
	if runMaxSolutions > 0 {
		spec.MaxSolutions = runMaxSolutions
	}
	if runTimeLimit > 0 {
		spec.TimeLimit = runTimeLimit.String()
	}
	run := v1alpha1.NewRun(uuid.NewString(), spec)

	reconciler := &controllers.RunReconciler{
		Registry: all.Registry(),
		Loader:   loader,
		Config:   cfg,
		Logger:   logger,
	}
	if err := reconciler.RunToCompletion(ctx, run); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if res, ok := reconciler.Result(run.Metadata.Name); ok && res.Report != nil {
		if err := report.Render(out, res.Report); err != nil {
			return err
		}
	}
	if runStatus || run.Status.State == v1alpha1.StateFailure {
		data, err := yaml.Marshal(run)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "---\n%s", data)
	}
	if run.Status.State == v1alpha1.StateFailure {
		return errRunFailed
	}
	return nil
}

func list(cmd *cobra.Command, _ []string) error {
	registry := all.Registry()
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK\tDATASET\tMODE\tDESCRIPTION")
	for _, name := range registry.Names() {
		t, _ := registry.Lookup(name)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Name(), t.DefaultDataset(), t.DefaultMode(), t.Description())
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "BUILT-IN DATASET\tTABLES")
	for _, name := range datasets.Names() {
		b, err := datasets.Load(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%d\n", name, len(b.Tables()))
	}
	return tw.Flush()
}

func show(cmd *cobra.Command, args []string) error {
	_, _, loader, err := setup()
	if err != nil {
		return err
	}
	defer loader.Close()
	b, err := loader.Load(context.Background(), args[0])
	if err != nil {
		return err
	}
	data, err := table.ToYAML(b)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
