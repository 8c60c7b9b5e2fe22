package main

import (
	"fmt"
	"os"

	"github.com/kabili207/device-dashboard/pkg/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	v       = config.NewViper()
)

var rootCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Device Dashboard - live view of an IoT board fleet",
	Long: `Device Dashboard polls an inventory API server for its boards and
motion events, polls every board for its live status and serves a web page
that updates itself as the state changes.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.ReadFile(v, cfgFile)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default is the first dashboard.yaml on the search path)")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("listen", ":8080", "address the web server listens on")
	flags.String("server-host", "", "initial API server host[:port]")

	v.BindPFlag("log_level", flags.Lookup("log-level"))
	v.BindPFlag("listen_addr", flags.Lookup("listen"))
	v.BindPFlag("server_host", flags.Lookup("server-host"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
