package main

import (
	"github.com/spf13/cobra"

	"github.com/sparkops/sparkjobd/internal/config"
)

// TODO: Inject version at build time.
const version = "0.1.0"

type rootFlags struct {
	configFile string
	host       string
	port       int
	debug      bool
}

func rootCmd() *cobra.Command {
	flags := &rootFlags{}

	c := &cobra.Command{
		Use:     "sparkjobd",
		Short:   "HTTP orchestrator for prebuilt batch-processing jobs",
		Example: "sparkjobd --port 8080 --debug",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.configFile)
			if err != nil {
				return err
			}

			// Flags beat config file and environment.
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = flags.host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = flags.port
			}
			if cmd.Flags().Changed("debug") {
				cfg.Logging.Debug = flags.debug
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			return runServer(cmd.Context(), cfg)
		},
	}

	c.Flags().StringVar(&flags.configFile, "config", "", "Path to config file")
	c.Flags().StringVar(&flags.host, "host", "localhost", "HTTP server host to bind")
	c.Flags().IntVar(&flags.port, "port", 8080, "HTTP server port")
	c.Flags().BoolVar(&flags.debug, "debug", false, "Enable debug logs")

	return c
}
