package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/andsalazar/FederalBudgetAnalysis/adapters/excel"
	"github.com/andsalazar/FederalBudgetAnalysis/adapters/fred"
	"github.com/andsalazar/FederalBudgetAnalysis/adapters/postgres"
	"github.com/andsalazar/FederalBudgetAnalysis/app"
	"github.com/andsalazar/FederalBudgetAnalysis/domain/core"
	"github.com/andsalazar/FederalBudgetAnalysis/internal/config"
	"github.com/andsalazar/FederalBudgetAnalysis/internal/deflate"
	"github.com/andsalazar/FederalBudgetAnalysis/internal/logging"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "fba-cli",
		Short: "Pipeline runner for distributional policy-impact studies",
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newFetchCmd(),
		newSeriesCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openDB() (*sqlx.DB, error) {
	dsn := config.DatabaseURL()
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return sqlx.Connect("postgres", dsn)
}

func newRunCmd() *cobra.Command {
	var (
		configPath   string
		sampleName   string
		seriesID     string
		intervention string
		impact       float64
		exportPath   string
		startDate    string
		endDate      string
		deflateWith  string
		baseYear     int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a full study: distribution, trend-break, ITS, bootstrap, welfare",
		RunE: func(cmd *cobra.Command, args []string) error {
			study, err := config.Load(configPath)
			if err != nil {
				return err
			}
			interventionDate, err := time.Parse("2006-01-02", intervention)
			if err != nil {
				return fmt.Errorf("invalid intervention date %q: %w", intervention, err)
			}
			start, err := time.Parse("2006-01-02", startDate)
			if err != nil {
				return fmt.Errorf("invalid start date %q: %w", startDate, err)
			}
			end, err := time.Parse("2006-01-02", endDate)
			if err != nil {
				return fmt.Errorf("invalid end date %q: %w", endDate, err)
			}

			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := context.Background()
			observations := postgres.NewObservationRepository(db)
			logger := logging.NewDefault()

			req := app.StudyRequest{
				Study:            study,
				InterventionDate: interventionDate,
				AggregateImpact:  impact,
			}
			if sampleName != "" {
				req.Sample, err = observations.GetSample(ctx, sampleName)
				if err != nil {
					return err
				}
			}
			if seriesID != "" {
				req.Series, err = observations.GetSeries(ctx, core.SeriesID(seriesID), start, end)
				if err != nil {
					return err
				}
				if deflateWith != "" {
					priceIndex, err := observations.GetSeries(ctx, core.SeriesID(deflateWith), start, end)
					if err != nil {
						return err
					}
					req.Series, err = deflate.Real(req.Series, priceIndex, baseYear)
					if err != nil {
						return fmt.Errorf("deflate %s with %s: %w", seriesID, deflateWith, err)
					}
				}
			}

			service := app.NewStudyService(logger, postgres.NewRunRepository(db))
			run, err := service.Execute(ctx, req)
			if err != nil {
				return err
			}

			if exportPath != "" {
				if err := excel.NewExporter().Export(run, exportPath); err != nil {
					return err
				}
				fmt.Printf("Exported tables to %s\n", exportPath)
			}

			out, err := json.MarshalIndent(run, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "study.json", "Study configuration file")
	cmd.Flags().StringVar(&sampleName, "sample", "", "Microdata sample name")
	cmd.Flags().StringVar(&seriesID, "series", "", "Fiscal series ID")
	cmd.Flags().StringVar(&intervention, "intervention", "2025-01-01", "Intervention date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&impact, "impact", 0, "Aggregate dollar impact in billions")
	cmd.Flags().StringVar(&exportPath, "export", "", "Write tables to an xlsx workbook")
	cmd.Flags().StringVar(&startDate, "start", "2000-01-01", "Series window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end", "2030-01-01", "Series window end (YYYY-MM-DD)")
	cmd.Flags().StringVar(&deflateWith, "deflate-with", "", "Price index series for converting the fiscal series to real dollars")
	cmd.Flags().IntVar(&baseYear, "base-year", 0, "Base year for deflation (0 anchors at the latest index value)")
	return cmd
}

func newFetchCmd() *cobra.Command {
	var (
		apiKey    string
		startDate string
		endDate   string
	)

	cmd := &cobra.Command{
		Use:   "fetch [series-id]",
		Short: "Fetch a remote series and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if apiKey == "" {
				apiKey = os.Getenv("FRED_API_KEY")
			}
			start, err := time.Parse("2006-01-02", startDate)
			if err != nil {
				return fmt.Errorf("invalid start date %q: %w", startDate, err)
			}
			end, err := time.Parse("2006-01-02", endDate)
			if err != nil {
				return fmt.Errorf("invalid end date %q: %w", endDate, err)
			}

			client := fred.NewClient(apiKey, "")
			ts, err := client.FetchSeries(context.Background(), core.SeriesID(args[0]), start, end)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(ts.Points(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key (defaults to FRED_API_KEY)")
	cmd.Flags().StringVar(&startDate, "start", "2000-01-01", "Observation start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end", "2030-01-01", "Observation end (YYYY-MM-DD)")
	return cmd
}

func newSeriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "series",
		Short: "List the series available in the observation store",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			ids, err := postgres.NewObservationRepository(db).ListSeries(context.Background())
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		},
	}
}
