package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	monitor "github.com/CrashBytes/cloudflare-monitor/internal/app"
	storagefactory "github.com/CrashBytes/cloudflare-monitor/internal/storage/factory"
	"github.com/CrashBytes/cloudflare-monitor/internal/sync/coordinator"
)

func newPollCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Run a single poll cycle and print its result",
		Long: `Run one poll cycle against the Cloudflare Pages API, persist the records to the
configured store and print the poll result as JSON or as a table. The command fails
when the cycle recorded errors.`,
		RunE: runPoll,
	}

	cmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	if err := cmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}
	cmd.Flags().String("format", "json", "Output format (json or table)")

	return cmd
}

func runPoll(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "json" && format != "table" {
		return fmt.Errorf("unsupported output format %q", format)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	coordOpts, err := monitor.CoordinatorOptions(cfg)
	if err != nil {
		return err
	}

	client, err := monitor.NewCloudflareClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create cloudflare client: %w", err)
	}

	store, err := storagefactory.NewStore(ctx, cfg, nil)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	defer store.Close()

	result := coordinator.New(client, store, coordOpts...).Poll(ctx)

	if format == "table" {
		err = printResultTable(cmd.OutOrStdout(), result)
	} else {
		err = printResultJSON(cmd.OutOrStdout(), result)
	}
	if err != nil {
		return err
	}

	if !result.Success {
		slog.Warn("Poll cycle recorded errors", "errors", len(result.Errors))
		return fmt.Errorf("poll cycle failed with %d error(s)", len(result.Errors))
	}
	return nil
}

func printResultJSON(w io.Writer, result *coordinator.PollResult) error {
	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format poll result as JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

func printResultTable(w io.Writer, result *coordinator.PollResult) error {
	table := tablewriter.NewWriter(w)
	table.Header("Field", "Value")

	rows := [][]string{
		{"success", strconv.FormatBool(result.Success)},
		{"timestamp", result.Timestamp.Format(time.RFC3339)},
		{"duration", fmt.Sprintf("%dms", result.DurationMs)},
		{coordinator.ResourceProjects, strconv.Itoa(result.ResourceCounts[coordinator.ResourceProjects])},
		{coordinator.ResourceDeployments, strconv.Itoa(result.ResourceCounts[coordinator.ResourceDeployments])},
	}
	for _, msg := range result.Errors {
		rows = append(rows, []string{"error", msg})
	}
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to format poll result as table: %w", err)
		}
	}
	return table.Render()
}
