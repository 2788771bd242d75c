package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func probeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Report available desktop-shell services",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "app id:           %s\n", factory.AppID())
			fmt.Fprintf(out, "session bus:      %s\n", availability(factory.Bus() != nil))
			fmt.Fprintf(out, "global menu:      %s\n", availability(factory.HasGlobalMenu()))
			fmt.Fprintf(out, "status notifier:  %s\n", availability(factory.HasStatusNotifier()))
			return nil
		},
	}
}

func availability(ok bool) string {
	if ok {
		return "available"
	}
	return "unavailable"
}
