package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bnema/shellexport/internal/export"
)

var (
	appID   string
	debug   bool
	factory *export.Factory
)

func Execute() error {
	root := &cobra.Command{
		Use:          "shellexport",
		Short:        "Export window menus and tray icons to the desktop shell",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if debug || os.Getenv("SHELLEXPORT_DEBUG") == "1" {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

			factory = export.Default(appID)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if factory == nil {
				return nil
			}
			return factory.Close()
		},
	}

	root.PersistentFlags().StringVar(&appID, "app-id", "", "application id (default $SHELLEXPORT_APP_ID or the executable name)")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(probeCmd(), runCmd())
	return root.Execute()
}
