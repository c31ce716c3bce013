package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lifeline-network/lifeline-engine/pkg/core/services"
)

// PlanCampsCmd expands the configured recurring camp series into camps
func PlanCampsCmd(app *AppContext) *cobra.Command {
	var horizonDays int

	cmd := &cobra.Command{
		Use:   "plan-camps",
		Short: "Create camps from the configured recurring series",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(app.Cfg.CampSeries) == 0 {
				return fmt.Errorf("no campSeries configured")
			}

			created, err := services.PlanCampSeries(app.Ctx, app.Database, app.Cfg, app.Logger, horizonDays)
			if err != nil {
				return fmt.Errorf("failed to plan camps: %w", err)
			}

			app.Logger.Info("Planned camps", zap.Int("created", len(created)))
			for _, camp := range created {
				fmt.Printf("%s  %s  %s-%s\n", camp.Date.Format("2006-01-02"), camp.Name, camp.StartTime, camp.EndTime)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&horizonDays, "days", 90, "Planning horizon in days")
	return cmd
}

// ListCampsCmd prints all camps with status and registration counts
func ListCampsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list-camps",
		Short: "List camps with status and registration counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			views, err := services.ListCamps(app.Ctx, app.Database)
			if err != nil {
				return fmt.Errorf("failed to list camps: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tNAME\tDISTRICT\tWINDOW\tSTATUS\tREGISTERED\tCAPACITY")
			for _, v := range views {
				capacity := "-"
				if v.Capacity != nil {
					capacity = fmt.Sprintf("%d", *v.Capacity)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s-%s\t%s\t%d\t%s\n",
					v.Date.Format("2006-01-02"), v.Name, v.District,
					v.StartTime, v.EndTime, v.Status, v.Registered, capacity)
			}
			return w.Flush()
		},
	}
}
