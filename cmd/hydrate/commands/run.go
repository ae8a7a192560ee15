package commands

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"votolocal-backend/lib/configutil"
	"votolocal-backend/lib/serviceutil"
	"votolocal-backend/lib/telemetry"
	"votolocal-backend/services/hydrate"
	"votolocal-backend/services/hydrate/db"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Drains the backlog for the configured city and reports what happened.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := serviceutil.SignalContext()

		cfg, err := configutil.ReadConfig[hydrate.Config]("config.json5")
		if err != nil {
			serviceutil.Fatal("read config", err)
		}

		conn, err := cfg.Database.Open(db.Schema)
		if err != nil {
			serviceutil.Fatal("open record store", err)
		}
		defer conn.Close()

		cache, err := hydrate.NewCache(ctx, cfg.Cache)
		if err != nil {
			serviceutil.Fatal("connect to cache", err)
		}
		defer cache.Close()

		telemetry.InstrumentPerfStats(ctx)

		svc := hydrate.NewService(conn, cache, cfg)
		report, err := svc.Run(ctx)
		if report != nil {
			renderReport(report)
		}
		if err != nil {
			serviceutil.Fatal("run pipeline", err)
		}
	},
}

func renderReport(report *hydrate.RunReport) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Pages", "Processed", "Success", "Not Found", "Failure", "Cache Hits", "Duration"})
	t.AppendRow(table.Row{
		report.Pages,
		report.Processed,
		report.Success,
		report.NotFound,
		report.Failure,
		report.CacheHits,
		fmt.Sprintf("%.1fs", report.Duration.Seconds()),
	})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
