// Command purged runs a standalone purge queue daemon. It is a demo
// harness, not a Ceph MDS: the journal and object store are the
// in-memory and local-disk reference implementations from the journal
// and objectstore packages, since the real services are external
// collaborators this module does not own (see SPEC_FULL.md §1, §6).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/distfs/purgequeue"
	"github.com/distfs/purgequeue/clustermap"
	"github.com/distfs/purgequeue/journal"
	"github.com/distfs/purgequeue/objectstore"
)

var cfgFile string

var config = purgequeue.DefaultConfig()

var rootCmd = &cobra.Command{
	Use:   "purged",
	Short: "standalone purge queue daemon",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "run the purge queue until interrupted",
	RunE:  cmdRun,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./purged.yaml)")

	runCmd.Flags().Uint64Var(&config.MaxPurgeOps, "max-purge-ops", config.MaxPurgeOps, "hard ceiling on concurrent purge op cost, 0 disables the ceiling")
	runCmd.Flags().Float64Var(&config.MaxPurgeOpsPerPG, "max-purge-ops-per-pg", config.MaxPurgeOpsPerPG, "purge ops admitted per placement group")
	runCmd.Flags().IntVar(&config.MaxPurgeFiles, "max-purge-files", config.MaxPurgeFiles, "ceiling on concurrently executing intents")
	runCmd.Flags().Uint64Var(&config.FilerMaxPurgeOps, "filer-max-purge-ops", config.FilerMaxPurgeOps, "per-intent cap on counted stripe objects")
	runCmd.Flags().StringVar(&dataDir, "data-dir", "./purged-data", "root directory for the demo disk object store")

	_ = viper.BindPFlag("max_purge_ops", runCmd.Flags().Lookup("max-purge-ops"))
	_ = viper.BindPFlag("max_purge_ops_per_pg", runCmd.Flags().Lookup("max-purge-ops-per-pg"))
	_ = viper.BindPFlag("max_purge_files", runCmd.Flags().Lookup("max-purge-files"))
	_ = viper.BindPFlag("filer_max_purge_ops", runCmd.Flags().Lookup("filer-max-purge-ops"))

	rootCmd.AddCommand(runCmd)
}

var dataDir string

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("purged")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}
	viper.SetEnvPrefix("purged")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			zap.L().Warn("failed to read config file", zap.Error(err))
		}
	}
}

// applyViperOverrides lets a config file set a value the operator didn't
// pass explicitly on the command line; an explicit flag always wins.
func applyViperOverrides(cmd *cobra.Command) {
	if viper.IsSet("max_purge_ops") && !cmd.Flags().Changed("max-purge-ops") {
		config.MaxPurgeOps = viper.GetUint64("max_purge_ops")
	}
	if viper.IsSet("max_purge_ops_per_pg") && !cmd.Flags().Changed("max-purge-ops-per-pg") {
		config.MaxPurgeOpsPerPG = viper.GetFloat64("max_purge_ops_per_pg")
	}
	if viper.IsSet("max_purge_files") && !cmd.Flags().Changed("max-purge-files") {
		config.MaxPurgeFiles = viper.GetInt("max_purge_files")
	}
	if viper.IsSet("filer_max_purge_ops") && !cmd.Flags().Changed("filer-max-purge-ops") {
		config.FilerMaxPurgeOps = viper.GetUint64("filer_max_purge_ops")
	}
}

func cmdRun(cmd *cobra.Command, args []string) error {
	applyViperOverrides(cmd)

	log, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	objects, err := objectstore.NewDisk(log.Named("objectstore"), dataDir)
	if err != nil {
		return err
	}

	core := purgequeue.NewCore(log.Named("purgequeue"), journal.NewMemory(), objects, 1, config)
	if err := core.Open(ctx); err != nil {
		return err
	}

	core.UpdateOpLimit(
		clustermap.StaticRankMap{Ranks: 1, Pools: []int64{1}},
		clustermap.StaticObjectStoreMap{1: 64},
	)

	log.Info("purged running", zap.Uint64("max_purge_ops", config.MaxPurgeOps))
	<-ctx.Done()

	log.Info("shutting down, draining in-flight purges")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	return core.Shutdown(shutdownCtx)
}

func main() {
	cobra.OnInitialize(initConfig)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
