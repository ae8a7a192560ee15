package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"votolocal-backend/lib/configutil"
	"votolocal-backend/lib/scrapers/tre"
	"votolocal-backend/lib/serviceutil"
	"votolocal-backend/services/hydrate"
)

var (
	lookupName   *string
	lookupBirth  *string
	lookupMother *string
)

func init() {
	lookupName = lookupCmd.Flags().String("name", "", "Full name of the person.")
	lookupBirth = lookupCmd.Flags().String("birth", "", "Birth date as DD/MM/YYYY.")
	lookupMother = lookupCmd.Flags().String("mother", "", "Full name of the person's mother.")
	lookupCmd.MarkFlagRequired("name")
	lookupCmd.MarkFlagRequired("birth")
	lookupCmd.MarkFlagRequired("mother")
	rootCmd.AddCommand(lookupCmd)
}

var lookupCmd = &cobra.Command{
	Use:   "lookup --name <name> --birth <DD/MM/YYYY> --mother <name>",
	Short: "Looks up a single person's polling location without touching the record store.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := serviceutil.SignalContext()

		cfg, err := configutil.ReadConfig[hydrate.Config]("config.json5")
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			serviceutil.Fatal("read config", err)
		}

		cache, err := hydrate.NewCache(ctx, cfg.Cache)
		if err != nil {
			serviceutil.Fatal("connect to cache", err)
		}
		defer cache.Close()

		svc := hydrate.NewService(nil, cache, cfg)
		outcome, err := svc.Lookup(ctx, tre.Subject{
			Name:       *lookupName,
			BirthDate:  *lookupBirth,
			MotherName: *lookupMother,
		})
		if err != nil {
			serviceutil.Fatal("lookup", err)
		}

		switch outcome.Status {
		case tre.StatusFound:
			renderLocation(outcome.Record)
		case tre.StatusNotFound:
			fmt.Println("no voter record found")
		default:
			err := outcome.Err
			if err == nil {
				err = errors.New(outcome.Reason)
			}
			serviceutil.Fatal(fmt.Sprintf("lookup failed (%s)", outcome.Status), err)
		}
	},
}

func renderLocation(record *tre.VoterLocation) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)

	biometrics := "no"
	if record.Biometrics {
		biometrics = "yes"
	}
	t.AppendRows([]table.Row{
		{"Enrollment", record.Enrollment},
		{"Zone", record.Zone},
		{"Section", record.Section},
		{"Polling place", record.PollingPlace},
		{"Address", record.Address},
		{"Neighborhood", record.Neighborhood},
		{"Municipality", record.Municipality},
		{"Country", record.Country},
		{"Biometrics", biometrics},
	})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
