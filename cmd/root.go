package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trendhub/internal/config"
	"trendhub/internal/logger"
)

const serviceName = "trendhub"

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "trendhub",
	Short: "TrendHub - trending products, price comparison and ads",
	Long:  "TrendHub serves the trending-products API and runs its maintenance jobs.",
	PersistentPostRun: func(*cobra.Command, []string) {
		logger.Sync()
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("env", "", "Environment name, overrides ENV")
	rootCmd.PersistentFlags().String("mongo-uri", "", "MongoDB connection string, overrides MONGO_URI")
	rootCmd.PersistentFlags().String("db", "", "Database name, overrides DB_NAME")
}

func initConfig() {
	cfg = config.Load()

	if v, _ := rootCmd.PersistentFlags().GetString("env"); v != "" {
		cfg.Env = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("mongo-uri"); v != "" {
		cfg.MongoURI = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("db"); v != "" {
		cfg.DBName = v
	}
	config.AppEnv = cfg

	if _, err := logger.Init(cfg.Env); err != nil {
		fmt.Fprintln(os.Stderr, "logger init failed:", err)
		os.Exit(1)
	}
	config.LogEnvFile()
}
