package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/redbco/redb-datasync/pkg/config"
	"github.com/redbco/redb-datasync/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	configFile string
	envFile    string
	logLevel   string

	dsType       string
	dsURL        string
	dsCollection string

	cfg *config.Config
	log = logger.Default()

	// Build information
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func printVersionInfo() {
	fmt.Printf("datasync %s (commit %s, built %s)\n", Version, GitCommit, BuildTime)
	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "datasync",
	Short: "Synchronize records with memory, MongoDB, Solr, Elasticsearch and REST backends",
	Long: "datasync connects to a configured data source and runs create, read, update and delete " +
		"operations against it, or fetches a REST resource.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Lookup("version") != nil && cmd.Flags().Lookup("version").Changed {
			printVersionInfo()
			return nil
		}
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func initConfig() error {
	var envFiles []string
	if envFile != "" {
		envFiles = append(envFiles, envFile)
	}

	c, err := config.Load(configFile, envFiles...)
	if err != nil {
		return err
	}
	overrides := make(map[string]string)
	if logLevel != "" {
		overrides[config.KeyLogLevel] = logLevel
	}
	if dsType != "" {
		overrides[config.KeyDataSourceType] = dsType
	}
	if dsURL != "" {
		overrides[config.KeyDataSourceURL] = dsURL
	}
	if dsCollection != "" {
		overrides[config.KeyDataSourceCollection] = dsCollection
	}
	if len(overrides) > 0 {
		c.Update(overrides)
	}
	cfg = c

	log.SetLevel(logger.ParseLevel(cfg.Get(config.KeyLogLevel)))
	log.SetPrefix(cfg.Get(config.KeyLogPrefix))
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "datasync.yaml", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to a .env file (default ./.env when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&dsType, "type", "", "Datasource type (overrides datasource.type)")
	rootCmd.PersistentFlags().StringVar(&dsURL, "url", "", "Datasource URL (overrides datasource.url)")
	rootCmd.PersistentFlags().StringVar(&dsCollection, "collection", "", "Collection, core or index name (overrides datasource.collection)")

	rootCmd.Flags().Bool("version", false, "Show version information and exit")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return initConfig()
	}

	setupCommands()
}

func main() {
	Execute()
}
