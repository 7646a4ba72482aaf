package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// TODO: Inject version at build time.
const version = "0.1.0"

type cli struct {
	client *apiClient
}

func newCLI() *cli {
	return &cli{}
}

func (c *cli) rootCmd() *cobra.Command {
	var (
		serverURL string
		apiKey    string
	)

	command := &cobra.Command{
		Use:          "sparkjobctl",
		Short:        "CLI for interacting with the sparkjobd orchestrator",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if apiKey == "" {
				apiKey = os.Getenv("SPARKJOBD_API_KEY")
			}

			c.client = newAPIClient(strings.TrimRight(serverURL, "/"), apiKey)
		},
	}

	command.AddCommand(
		c.submitCmd(),
		c.statusCmd(),
		c.resultCmd(),
		c.logsCmd(),
	)

	command.CompletionOptions.HiddenDefaultCmd = true

	command.PersistentFlags().StringVar(
		&serverURL,
		"server",
		"http://localhost:8080",
		"Orchestrator base URL",
	)

	command.PersistentFlags().StringVar(
		&apiKey,
		"api-key",
		"",
		"API key (defaults to SPARKJOBD_API_KEY)",
	)

	return command
}

func (c *cli) submitCmd() *cobra.Command {
	var (
		jobType string
		inputs  []string
		output  string
		timeout int
	)

	command := &cobra.Command{
		Use:     "submit [name]",
		Short:   "Submit a prebuilt job",
		Example: `sparkjobctl submit top_customers_revenue --input customers=/data/customers.csv --input orders=/data/orders.csv --output /data/out`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputPaths, err := parseInputs(inputs)
			if err != nil {
				return err
			}

			resp, err := c.client.submit(
				cmd.Context(),
				args[0],
				jobType,
				inputPaths,
				output,
				timeout,
			)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", resp.JobID)

			return nil
		},
	}

	command.Flags().StringVar(&jobType, "type", "prebuilt", "Job type")
	command.Flags().StringArrayVar(
		&inputs,
		"input",
		nil,
		"Input location as name=path (repeatable)",
	)
	command.Flags().StringVar(&output, "output", "", "Output directory")
	command.Flags().IntVar(
		&timeout,
		"timeout",
		0,
		"Timeout in seconds (0 uses the server default)",
	)

	return command
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [id]",
		Short: "Show the status of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := c.client.status(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

			fmt.Fprintf(w, "ID:\t%s\n", resp.JobID)
			fmt.Fprintf(w, "Status:\t%s\n", resp.Status)
			fmt.Fprintf(w, "Started:\t%s\n", formatTime(resp.StartedAt))
			fmt.Fprintf(w, "Finished:\t%s\n", formatTime(resp.FinishedAt))

			if resp.ExitCode != nil {
				fmt.Fprintf(w, "Exit code:\t%d\n", *resp.ExitCode)
			}

			if resp.ResultURL != nil {
				fmt.Fprintf(w, "Result:\t%s\n", *resp.ResultURL)
			}

			return w.Flush()
		},
	}
}

func (c *cli) resultCmd() *cobra.Command {
	var outFile string

	command := &cobra.Command{
		Use:   "result [id]",
		Short: "Download the result document of a succeeded job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := c.client.result(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if outFile != "" {
				return os.WriteFile(outFile, body, 0o644)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s", body)

			return nil
		},
	}

	command.Flags().StringVar(
		&outFile,
		"out",
		"",
		"Write the result to this file instead of stdout",
	)

	return command
}

func (c *cli) logsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logs [id]",
		Short: "Print the full log of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := c.client.logs(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", resp.Logs)

			return nil
		},
	}
}

func parseInputs(pairs []string) (map[string]string, error) {
	inputs := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		name, path, found := strings.Cut(pair, "=")
		if !found || name == "" || path == "" {
			return nil, fmt.Errorf("invalid input %q, expected name=path", pair)
		}

		inputs[name] = path
	}

	return inputs, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}

	return t.Format(time.RFC3339)
}
