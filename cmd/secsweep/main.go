package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bl4ck0w1/secsweep/cmd/secsweep/commands"
	"github.com/bl4ck0w1/secsweep/pkg/utils"
)

var (
	version   = "1.0.0"
	commit    = "unknown"
	buildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:     "secsweep",
	Short:   "SecSweep - Security Test Orchestrator",
	Long:    "SecSweep coordinates independent security test suites against a running target application, extracts vulnerability findings from their output, and scores the overall security posture.",
	Version: version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if err := initLogging(); err != nil {
			return err
		}

		if err := ensureDirs(); err != nil {
			logrus.Warnf("Failed to ensure directories: %v", err)
		}

		if !viper.GetBool("quiet") {
			printBanner()
		}
		return nil
	},
}

// Execute maps command failures onto the documented process exit codes.
// An ExitError carries 1 (suite failures), 2 (critical findings) or
// 3 (orchestrator failure); anything else is a CLI-level error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var ee *commands.ExitError
		if errors.As(err, &ee) {
			if ee.Err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", ee.Err)
			}
			os.Exit(ee.Code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.secsweep/config.yaml)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet mode (no banner output)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (text, json)")
	rootCmd.PersistentFlags().String("log-file", "", "log file path")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("log_file", rootCmd.PersistentFlags().Lookup("log-file"))

	rootCmd.AddCommand(commands.NewRunCommand(version))
	rootCmd.AddCommand(commands.NewSuitesCommand())
	rootCmd.AddCommand(commands.NewRunsCommand())
	rootCmd.AddCommand(commands.NewConfigureCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, buildDate))

	rootCmd.InitDefaultCompletionCmd()

	rootCmd.SetVersionTemplate(fmt.Sprintf("SecSweep %s (commit %s, built %s)\n", version, commit, buildDate))
}

func initConfig() error {
	setDefaults()
	viper.SetEnvPrefix("SECSWEEP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("get home dir: %w", err)
		}
		viper.AddConfigPath(filepath.Join(home, ".secsweep"))
		viper.AddConfigPath("/etc/secsweep/")
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			logrus.Warnf("Failed reading config file: %v", err)
		}
	} else {
		logrus.Debugf("Using config file: %s", viper.ConfigFileUsed())
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "json")
	viper.SetDefault("quiet", false)
	viper.SetDefault("output_directory", "./reports")
	viper.SetDefault("data_directory", "./data")
	viper.SetDefault("work_dir", ".")
	viper.SetDefault("environment", "staging")
	viper.SetDefault("runner.command", "npx")
	viper.SetDefault("runner.args", []string{"mocha", "--reporter", "json"})
	viper.SetDefault("runner.min_version", "18.0.0")
	viper.SetDefault("archive.compress", false)
	viper.SetDefault("archive.retention", "720h")
}

func initLogging() error {
	logConfig := utils.LogConfig{
		Level:         viper.GetString("log_level"),
		Format:        viper.GetString("log_format"),
		FileLocation:  viper.GetString("log_file"),
		EnableConsole: true,
	}

	logger, err := utils.NewLogger(logConfig, "secsweep", version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize structured logger, falling back: %v\n", err)
		basic := logrus.New()
		basic.SetFormatter(&logrus.JSONFormatter{})
		logrus.SetOutput(basic.Out)
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetFormatter(basic.Formatter)
		return nil
	}

	logrus.SetOutput(logger.Out)
	logrus.SetLevel(logger.Level)
	logrus.SetFormatter(logger.Formatter)

	for _, hooks := range logger.Hooks {
		for _, h := range hooks {
			logrus.AddHook(h)
		}
	}
	return nil
}

func ensureDirs() error {
	dirs := []string{
		viper.GetString("output_directory"),
		viper.GetString("data_directory"),
	}
	for _, d := range dirs {
		if d == "" {
			continue
		}
		if err := utils.EnsureDir(d); err != nil {
			return fmt.Errorf("ensure dir %s: %w", d, err)
		}
	}
	return nil
}

func printBanner() {
	const banner = `
  ███████╗███████╗ ██████╗███████╗██╗    ██╗███████╗███████╗██████╗
  ██╔════╝██╔════╝██╔════╝██╔════╝██║    ██║██╔════╝██╔════╝██╔══██╗
  ███████╗█████╗  ██║     ███████╗██║ █╗ ██║█████╗  █████╗  ██████╔╝
  ╚════██║██╔══╝  ██║     ╚════██║██║███╗██║██╔══╝  ██╔══╝  ██╔═══╝
  ███████║███████╗╚██████╗███████║╚███╔███╔╝███████╗███████╗██║
  ╚══════╝╚══════╝ ╚═════╝╚══════╝ ╚══╝╚══╝ ╚══════╝╚══════╝╚═╝

                  Security Test Orchestrator v%s
  ______________________________________________________________
`
	fmt.Printf(banner, version)
	fmt.Printf("Build: %s (%s) | %s/%s\n\n", commit, buildDate, runtime.GOOS, runtime.GOARCH)
}

func main() {
	startTime := time.Now()
	Execute()
	if strings.EqualFold(viper.GetString("log_level"), "debug") {
		logrus.Debugf("Execution completed in %v", time.Since(startTime))
	}
}
