package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/roofledger/scopediff/internal/delta"
	"github.com/roofledger/scopediff/internal/domain"
	"github.com/roofledger/scopediff/internal/ingestion"
)

// Exit codes for CI integration.
const (
	exitClean         = 0
	exitError         = 1
	exitVariancesSeen = 3
)

var version = "dev"

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "scopediff",
		Usage:     "compare adjuster and contractor line-item scopes",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Usage: "log parsing details to stderr"},
		},
		Commands: []*cli.Command{
			{
				Name:      "compare",
				Usage:     "print the variances between two estimate files",
				ArgsUsage: " ",
				Flags: []cli.Flag{
					&cli.PathFlag{Name: "adjuster", Aliases: []string{"a"}, Required: true, Usage: "adjuster estimate file"},
					&cli.PathFlag{Name: "contractor", Aliases: []string{"c"}, Required: true, Usage: "contractor estimate file"},
					&cli.StringFlag{Name: "adjuster-format", Usage: "csv, xact or json (default: from extension)"},
					&cli.StringFlag{Name: "contractor-format", Usage: "csv, xact or json (default: from extension)"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "text", Usage: "text or json"},
				},
				Action: compareAction,
			},
		},
	}
}

func compareAction(c *cli.Context) error {
	level := slog.LevelWarn
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: level}))

	output := c.String("output")
	if output != "text" && output != "json" {
		return cli.Exit(fmt.Sprintf("unknown output format %q", output), exitError)
	}

	adjuster, err := loadScope(logger, c.Path("adjuster"), c.String("adjuster-format"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("adjuster: %v", err), exitError)
	}
	contractor, err := loadScope(logger, c.Path("contractor"), c.String("contractor-format"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("contractor: %v", err), exitError)
	}

	vs := delta.ComputeDelta(adjuster, contractor)
	st := delta.ComputeStats(vs)

	if output == "json" {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{"variances": vs, "stats": st}); err != nil {
			return cli.Exit(err.Error(), exitError)
		}
	} else {
		writeText(c.App.Writer, vs, st)
	}

	if len(vs) > 0 {
		return cli.Exit("", exitVariancesSeen)
	}
	return nil
}

func loadScope(logger *slog.Logger, path, format string) ([]domain.LineItem, error) {
	if format == "" {
		format = formatFromExt(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	items, ref, err := ingestion.Parse(data, format)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded scope", "path", path, "format", format, "reference", ref, "items", len(items))
	return items, nil
}

func formatFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ingestion.FormatJSON
	case ".txt", ".psv", ".xact":
		return ingestion.FormatXact
	default:
		return ingestion.FormatCSV
	}
}

func writeText(w io.Writer, vs []domain.Variance, st domain.Stats) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tSEVERITY\tDELTA\tDESCRIPTION\t")
	for _, v := range vs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", v.Kind, v.Severity, v.DeltaTotal.StringFixed(2), v.Description)
	}
	tw.Flush()

	fmt.Fprintf(w, "\n%d variances, net delta %s (high %d, medium %d, low %d; missing %d, underpaid %d, qty mismatch %d)\n",
		st.TotalVariances, st.TotalDelta.StringFixed(2),
		st.HighSeverity, st.MediumSeverity, st.LowSeverity,
		st.MissingItems, st.UnderpaidItems, st.QtyMismatches)
}
