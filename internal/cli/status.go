package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zainulabidin776/apodflow/internal/core/config"
	"github.com/zainulabidin776/apodflow/internal/infra/storage/csvfile"
	"github.com/zainulabidin776/apodflow/internal/infra/storage/postgres"
	"github.com/zainulabidin776/apodflow/internal/versioning"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current state of both sinks and the data repository",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "COMPONENT\tSTATE")

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		_, _ = fmt.Fprintf(w, "postgres\tunreachable: %v\n", err)
	} else {
		defer func() { _ = db.Close() }()
		repo := postgres.NewRecordRepo(db)
		total, err := repo.TotalCount(ctx)
		if err != nil {
			_, _ = fmt.Fprintf(w, "postgres\tquery failed: %v\n", err)
		} else {
			_, _ = fmt.Fprintf(w, "postgres\t%d records\n", total)
			if latest, err := repo.Latest(ctx); err == nil {
				_, _ = fmt.Fprintf(w, "postgres latest\t%s (%s)\n", latest.Date, latest.Provenance)
			}
		}
	}

	dataFile := filepath.Join(cfg.Pipeline.DataDir, cfg.Pipeline.CSVFile)
	history := csvfile.NewStore(dataFile)
	if !history.Exists() {
		_, _ = fmt.Fprintln(w, "csv\tnot yet written")
	} else {
		rows, err := history.RowCount()
		if err != nil {
			_, _ = fmt.Fprintf(w, "csv\tunreadable: %v\n", err)
		} else {
			_, _ = fmt.Fprintf(w, "csv\t%d rows\n", rows)
			if latest, err := history.Latest(); err == nil && latest != nil {
				_, _ = fmt.Fprintf(w, "csv latest\t%s (%s)\n", latest.Date, latest.Provenance)
			}
		}
	}

	reconciler := versioning.NewReconciler(cfg.Pipeline.DataDir, cfg.Versioning)
	state, err := reconciler.State(dataFile)
	if err != nil {
		_, _ = fmt.Fprintf(w, "versioning\tunreadable: %v\n", err)
	} else {
		_, _ = fmt.Fprintf(w, "checksum\t%s\n", orDash(state.CSVChecksum))
		_, _ = fmt.Fprintf(w, "metadata\t%s\n", presentOrMissing(state.MetadataPresent))
		if state.RepoDirty {
			_, _ = fmt.Fprintln(w, "repository\tdirty")
		} else {
			_, _ = fmt.Fprintln(w, "repository\tclean")
		}
	}

	_ = w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func presentOrMissing(present bool) string {
	if present {
		return "present"
	}
	return "missing"
}
