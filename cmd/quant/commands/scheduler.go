package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/insiderlab/quant/internal/insider"
	"github.com/insiderlab/quant/internal/marketdata"
	"github.com/insiderlab/quant/internal/scheduler"
	"github.com/insiderlab/quant/internal/scheduler/jobs"
	"github.com/insiderlab/quant/pkg/database"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the data refresh scheduler",
	Long: `Keep filings, prices, and signals fresh on weekday evening schedules.

Example:
  go run ./cmd/quant scheduler start
  go run ./cmd/quant scheduler list
  go run ./cmd/quant scheduler run filing_refresh`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler and block until interrupted",
		RunE:  runSchedulerStart,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs and their schedules",
		RunE:  runSchedulerList,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job]",
		Short: "Trigger one job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runSchedulerRun,
	}

	schedulerSignalsOut string
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)

	schedulerCmd.PersistentFlags().StringVar(&schedulerSignalsOut, "signals-out", "signals.csv", "CSV path for the signal refresh job")
}

// initScheduler builds the scheduler with every refresh job registered.
func initScheduler(d *deps) (*scheduler.Scheduler, *database.DB, error) {
	db, err := database.New(d.cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	params, err := d.loadParams()
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	s := scheduler.New(d.log)

	refreshJobs := []scheduler.Job{
		jobs.NewFilingRefreshJob(d.filing, insider.NewRepository(db.Pool), params.lookbackDays, d.log),
		jobs.NewPriceRefreshJob(d.stooq, marketdata.NewRepository(db.Pool), d.log),
		jobs.NewSignalRefreshJob(d.newSignalService(params), d.cfg.Backtest.TopN, schedulerSignalsOut, d.log),
	}
	for _, job := range refreshJobs {
		if err := s.AddJob(job); err != nil {
			db.Close()
			return nil, nil, err
		}
	}

	return s, db, nil
}

func runSchedulerStart(cmd *cobra.Command, args []string) error {
	d, err := initDeps()
	if err != nil {
		return err
	}
	defer d.Close()

	s, db, err := initScheduler(d)
	if err != nil {
		return err
	}
	defer db.Close()

	s.Start()
	fmt.Println("Scheduler running. Press Ctrl+C to stop.")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	s.Stop()
	fmt.Println("Scheduler stopped")
	return nil
}

func runSchedulerList(cmd *cobra.Command, args []string) error {
	d, err := initDeps()
	if err != nil {
		return err
	}
	defer d.Close()

	s, db, err := initScheduler(d)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Println("Registered jobs:")
	for _, name := range s.Jobs() {
		history, err := s.History(name)
		if err != nil {
			return err
		}
		line := fmt.Sprintf("  %-16s", name)
		if last, ok := history.Last(); ok {
			status := "ok"
			if !last.Success {
				status = "failed"
			}
			line += fmt.Sprintf(" last run %s (%s)", last.StartTime.Format("2006-01-02 15:04"), status)
		} else {
			line += " never run"
		}
		fmt.Println(line)
	}
	return nil
}

func runSchedulerRun(cmd *cobra.Command, args []string) error {
	d, err := initDeps()
	if err != nil {
		return err
	}
	defer d.Close()

	s, db, err := initScheduler(d)
	if err != nil {
		return err
	}
	defer db.Close()

	name := args[0]
	fmt.Printf("Running job %s...\n", name)
	if err := s.RunJobAndWait(name); err != nil {
		return err
	}

	history, err := s.History(name)
	if err != nil {
		return err
	}
	if last, ok := history.Last(); ok && !last.Success {
		return fmt.Errorf("job %s failed: %s", name, last.Error)
	}
	fmt.Printf("Job %s completed\n", name)
	return nil
}
