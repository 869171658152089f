package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	navigate "github.com/walteh/gocssmods/cmd/gocssmods/navigate"
	print_projection "github.com/walteh/gocssmods/cmd/gocssmods/print-projection"
	watch "github.com/walteh/gocssmods/cmd/gocssmods/watch"
	logging "github.com/walteh/gocssmods/pkg/debug"
	"github.com/walteh/gocssmods/pkg/project"
	"gitlab.com/tozd/go/errors"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var logLevel string
	var caller bool

	rootCmd := &cobra.Command{
		Use:   "gocssmods",
		Short: "navigate css module class names through their typescript declarations",
	}

	rootCmd.PersistentFlags().String("root", ".", "project root holding the config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level, overrides the config")
	rootCmd.PersistentFlags().BoolVar(&caller, "log-caller", false, "add the calling file to log lines")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		root, err := cmd.Flags().GetString("root")
		if err != nil {
			return err
		}

		cfg, _, err := project.FindConfig(afero.NewOsFs(), root)
		if err != nil {
			return errors.Errorf("loading config: %w", err)
		}

		level := cfg.Level()
		if logLevel != "" {
			level, err = zerolog.ParseLevel(logLevel)
			if err != nil {
				return errors.Errorf("parsing --log-level: %w", err)
			}
		}

		cmd.SetContext(logging.WithLogger(cmd.Context(), os.Stderr, logging.LoggerOptions{
			Level:  level,
			Color:  !color.NoColor,
			Caller: caller,
		}))
		return nil
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		rootCmd.Version = "unknown"
	} else {
		rootCmd.Version = info.Main.Version
	}

	cmdVersion := &cobra.Command{
		Use: "raw-version",
		Run: func(cmdz *cobra.Command, args []string) {
			cmdz.Println(rootCmd.Version)
		},
		Hidden: true,
	}

	rootCmd.AddCommand(cmdVersion)
	rootCmd.AddCommand(print_projection.NewProjectCommand())
	rootCmd.AddCommand(navigate.NewDefinitionCommand())
	rootCmd.AddCommand(navigate.NewReferencesCommand())
	rootCmd.AddCommand(navigate.NewRenameCommand())
	rootCmd.AddCommand(watch.NewWatchCommand())

	rootCmd.SilenceUsage = true

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		return errors.Errorf("failed to execute command: %w", err)
	}

	return nil
}
