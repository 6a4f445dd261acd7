// Command ethlinkstate queries and exports the link state of network
// interfaces using ethtool netlink.
package main

import (
	"fmt"
	"os"

	"github.com/ethnl/ethtool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// globals are the options shared by every subcommand.
type globals struct {
	configPath string
	logLevel   string
	logFormat  string
	netns      int

	cfg config
	log *zap.Logger
}

func main() {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:   "ethlinkstate",
		Short: "Query the link state of network interfaces",
		Long: `ethlinkstate queries the kernel's ethtool netlink interface for the
link state of network interfaces, and can export it as Prometheus metrics.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Path to a TOML configuration file")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "Log format (console, json)")
	rootCmd.PersistentFlags().IntVar(&g.netns, "netns", 0, "Network namespace file descriptor")

	rootCmd.AddCommand(
		getCmd(g),
		serveCmd(g),
		stressCmd(g),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ethlinkstate: %s\n", err)
		os.Exit(1)
	}
}

// setup loads the configuration file, applies flag overrides and creates
// the logger.
func (g *globals) setup(cmd *cobra.Command) error {
	cfg := defaultConfig()
	if g.configPath != "" {
		var err error
		if cfg, err = loadConfig(g.configPath); err != nil {
			return err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = g.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = g.logFormat
	}
	if flags.Changed("netns") {
		cfg.NetNS = g.netns
	}

	log, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	g.cfg, g.log = cfg, log
	return nil
}

// dial opens an ethtool connection and a Handle which uses it.
func (g *globals) dial() (*ethtool.Conn, *ethtool.Handle, error) {
	c, err := ethtool.Dial(&ethtool.Config{
		NetNS:  g.cfg.NetNS,
		Logger: g.log.Named("ethtool"),
	})
	if err != nil {
		return nil, nil, err
	}

	return c, ethtool.NewHandle(c, ethtool.WithLogger(g.log.Named("handle"))), nil
}
