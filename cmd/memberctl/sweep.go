package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sweepDryRun bool

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the daily lifecycle sweep",
	Long: `Send expiry reminders and expire lapsed subscriptions, downgrading
members whose latest subscription has ended.

Examples:
  memberctl sweep             # run the sweep now
  memberctl sweep --dry-run   # only list what would be processed`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if !sweepDryRun {
			result, err := current.Lifecycle.RunDailySweep(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "reminders sent: %d\nexpired: %d\ndowngraded: %d\nfailed: %d\n",
				result.RemindersSent, result.Expired, result.Downgraded, result.Failed)
			return nil
		}

		window := current.Config.Lifecycle.ReminderWindowDays
		if window <= 0 {
			window = 10
		}
		expiring, err := current.Lifecycle.ListExpiringSoon(ctx, window)
		if err != nil {
			return err
		}
		lapsed, err := current.Lifecycle.ListLapsed(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "Expiring within %d days:\n", window)
		fmt.Fprintln(w, "MEMBER\tEMAIL\tEXPIRES\tSOURCE")
		for _, item := range expiring {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", item.Member.ID, item.Member.Email, item.ExpiresAt.Format("2006-01-02"), item.Source)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Lapsed subscriptions to expire:")
		fmt.Fprintln(w, "SUBSCRIPTION\tMEMBER\tTYPE\tENDED")
		for _, sub := range lapsed {
			fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", sub.ID, sub.MemberID, sub.MemberType, sub.EndDate.Format("2006-01-02"))
		}
		return w.Flush()
	},
}

func init() {
	sweepCmd.Flags().BoolVar(&sweepDryRun, "dry-run", false, "list candidates without changing anything")
	rootCmd.AddCommand(sweepCmd)
}
