// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/mizuki-h/gh-org-activity/internal/domain"
	"github.com/mizuki-h/gh-org-activity/internal/gateway"
	"github.com/mizuki-h/gh-org-activity/internal/progress"
	"github.com/mizuki-h/gh-org-activity/internal/usecase"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Collects organization activity metrics and outputs them as JSON",
	Long: `Collects activity metrics for every repository of the specified GitHub
organization within the given date range, and outputs the per-repository
records plus organization totals in JSON format.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		// Get the verbose flag from the root command to set up the logger.
		verbose, _ := cmd.InheritedFlags().GetBool("verbose")
		logger := log.New(io.Discard, "", log.LstdFlags) // Default: discard all logs.
		if verbose {
			logger.SetOutput(os.Stderr) // If verbose, log to standard error.
			pterm.EnableDebugMessages()
		}

		org, _ := cmd.Flags().GetString("org")
		fromStr, _ := cmd.Flags().GetString("from")
		toStr, _ := cmd.Flags().GetString("to")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		pageSize, _ := cmd.Flags().GetInt("page-size")
		include, _ := cmd.Flags().GetStringSlice("include")
		exclude, _ := cmd.Flags().GetStringSlice("exclude")
		skipLineStats, _ := cmd.Flags().GetBool("skip-line-stats")

		token := os.Getenv("GITHUB_TOKEN")
		if token == "" {
			fmt.Fprintln(os.Stderr, "Error: GITHUB_TOKEN environment variable is not set.")
			os.Exit(1)
		}

		const inputDateLayout = "2006/01/02"
		from, err := time.Parse(inputDateLayout, fromStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid --from date format. Please use YYYY/MM/DD. Error: %v\n", err)
			os.Exit(1)
		}
		to, err := time.Parse(inputDateLayout, toStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid --to date format. Please use YYYY/MM/DD. Error: %v\n", err)
			os.Exit(1)
		}
		if to.Before(from) {
			fmt.Fprintln(os.Stderr, "Error: --to must not be before --from.")
			os.Exit(1)
		}
		rng := domain.NewDateRange(from, to)

		// Inject dependencies and run the collection.
		gw, err := gateway.NewGateway(token, gateway.Config{
			Organization:  org,
			PageSize:      pageSize,
			SkipLineStats: skipLineStats,
		}, progress.Pterm{}, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create GitHub gateway: %v\n", err)
			os.Exit(1)
		}

		repos, err := gw.ListOrgRepositories(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to list repositories: %v\n", err)
			os.Exit(1)
		}
		repos = usecase.FilterRepositories(repos, include, exclude)
		logger.Printf("collecting metrics for %d repositories in %s", len(repos), org)

		scheduler := usecase.NewScheduler(gw, concurrency, logger)
		metrics, err := scheduler.Run(ctx, repos, rng)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to collect metrics: %v\n", err)
			os.Exit(1)
		}

		report, err := usecase.BuildReport(org, rng, metrics)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to build report: %v\n", err)
			os.Exit(1)
		}

		// Marshal the report into a pretty-printed JSON string.
		jsonData, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to marshal report to JSON: %v\n", err)
			os.Exit(1)
		}

		// Print the final JSON to standard output.
		fmt.Println(string(jsonData))
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringP("org", "o", "", "Target GitHub organization name (required)")
	reportCmd.MarkFlagRequired("org")
	reportCmd.Flags().String("from", "", "Start date of the reporting window (YYYY/MM/DD, required)")
	reportCmd.Flags().String("to", "", "End date of the reporting window (YYYY/MM/DD, required)")
	reportCmd.MarkFlagRequired("from")
	reportCmd.MarkFlagRequired("to")
	reportCmd.Flags().IntP("concurrency", "c", 5, "Number of repositories collected concurrently")
	reportCmd.Flags().Int("page-size", 100, "Page size for list API calls")
	reportCmd.Flags().StringSlice("include", nil, "Only collect these repositories (comma separated)")
	reportCmd.Flags().StringSlice("exclude", nil, "Skip these repositories (comma separated)")
	reportCmd.Flags().Bool("skip-line-stats", false, "Skip line-delta collection to save API quota")
}
