// Package main provides an operator CLI for the Sharpline engine.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/sharpline/internal/config"
	"github.com/yourusername/sharpline/internal/database"
	"github.com/yourusername/sharpline/internal/datasource"
	"github.com/yourusername/sharpline/internal/engine"
	"github.com/yourusername/sharpline/internal/logger"
	"github.com/yourusername/sharpline/internal/models"
	"github.com/yourusername/sharpline/internal/repository"
)

var (
	configFile string
	dateFlag   string
	appLog     *logrus.Logger
	cfg        *config.Config
	db         *database.DB
	repos      *repository.Repositories
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	updateCmd.Flags().StringVar(&dateFlag, "date", "", "Run date (YYYY-MM-DD, default today)")
	parlaysCmd.Flags().StringVar(&dateFlag, "date", "", "Run date (YYYY-MM-DD, default today)")

	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(settleCmd)
	rootCmd.AddCommand(parlaysCmd)
	rootCmd.AddCommand(performanceCmd)
}

var rootCmd = &cobra.Command{
	Use:   "sharplinectl",
	Short: "Operate the Sharpline scoring and parlay engine",
	Long:  `Triggers update and settlement runs and inspects composed parlays and performance.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setup(); err != nil {
			return fmt.Errorf("failed to set up: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func setup() error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	appLog = logger.NewLogger(cfg.App.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err = database.Initialize(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	repos, err = repository.NewRepositories(db)
	return err
}

func resolveDate() (time.Time, error) {
	if dateFlag == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01-02", dateFlag)
}

func newPipeline() *engine.Pipeline {
	sources := datasource.NewSources(cfg, appLog)
	return engine.NewPipeline(cfg, db, repos, sources, appLog)
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Run one update cycle",
	RunE: func(cmd *cobra.Command, args []string) error {
		runDate, err := resolveDate()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
		defer cancel()

		if err := newPipeline().RunUpdate(ctx, runDate); err != nil {
			return err
		}
		fmt.Printf("Update cycle completed for %s\n", runDate.Format("2006-01-02"))
		return nil
	},
}

var settleCmd = &cobra.Command{
	Use:   "settle",
	Short: "Run one settlement pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if err := newPipeline().RunSettlement(ctx, time.Now().UTC()); err != nil {
			return err
		}
		fmt.Println("Settlement pass completed")
		return nil
	},
}

var parlaysCmd = &cobra.Command{
	Use:   "parlays",
	Short: "List parlays for a run date",
	RunE: func(cmd *cobra.Command, args []string) error {
		runDate, err := resolveDate()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		parlays, err := repos.Parlay.GetByRunDate(ctx, runDate, false)
		if err != nil {
			return err
		}

		if len(parlays) == 0 {
			fmt.Printf("No parlays for %s\n", runDate.Format("2006-01-02"))
			return nil
		}

		for _, p := range parlays {
			fmt.Printf("%s  legs=%d  price=%.2f  prob=%.3f  ev=%+.3f  status=%s\n",
				p.ID, len(p.Legs), p.CombinedPrice, p.CombinedProbability, p.ExpectedValue, p.Status)
			for _, leg := range p.Legs {
				fmt.Printf("    %-30s %-16s %s %.1f @ %.2f  conf=%.3f  result=%s\n",
					leg.Subject, leg.Market, leg.Direction, leg.Line, leg.Price, leg.Confidence, leg.Result)
			}
		}
		return nil
	},
}

var performanceCmd = &cobra.Command{
	Use:   "performance",
	Short: "Show aggregate performance across settled parlays",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		settled, err := repos.Parlay.GetSettled(ctx, 1000)
		if err != nil {
			return err
		}

		perf := models.ComputePerformance(settled)
		fmt.Printf("Settled parlays: %d (won %d, lost %d, void %d)\n",
			perf.TotalParlays, perf.Wins, perf.Losses, perf.Voided)
		fmt.Printf("Win rate:        %.1f%%\n", perf.WinRate*100)
		fmt.Printf("Average odds:    %.2f\n", perf.AverageOdds)
		fmt.Printf("Staked:          %s  Returned: %s\n", perf.TotalStaked, perf.TotalReturned)
		fmt.Printf("ROI:             %+.2f%%\n", perf.ROI*100)
		return nil
	},
}
