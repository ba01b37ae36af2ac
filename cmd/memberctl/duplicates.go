package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/qs3c/members_server/internal/model/dto"
	"github.com/qs3c/members_server/internal/service"
)

var (
	duplicatesType string
	mergeTarget    int64
	mergeSources   []int64
)

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "List members that look like duplicates",
	Long: `Group members by case-insensitive email, full name or national id.

Examples:
  memberctl duplicates                  # all criteria
  memberctl duplicates --type email     # email only`,
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := current.Duplicates.FindDuplicates(cmd.Context(), duplicatesType)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		printGroups(w, service.CriterionEmail, resp.Duplicates.Emails)
		printGroups(w, service.CriterionName, resp.Duplicates.Names)
		printGroups(w, service.CriterionNationalID, resp.Duplicates.NationalIDs)
		fmt.Fprintf(w, "affected members: %d\n", resp.Summary.TotalAffectedMembers)
		return w.Flush()
	},
}

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge duplicate members into a target member",
	Long: `Move subscriptions, payments and history of the source members onto the
target member and delete the sources.

Example:
  memberctl merge --target 12 --sources 15,18`,
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := current.Duplicates.MergeGroup(cmd.Context(), mergeTarget, mergeSources, nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "merged %v into %d: %d subscriptions, %d payments, %d history entries moved\n",
			resp.MergedMemberIDs, resp.TargetMemberID, resp.SubscriptionsMoved, resp.PaymentsMoved, resp.HistoryEntriesMoved)
		return nil
	},
}

func printGroups(w *tabwriter.Writer, criterion string, groups []dto.DuplicateGroup) {
	if len(groups) == 0 {
		return
	}
	fmt.Fprintf(w, "By %s:\n", criterion)
	fmt.Fprintln(w, "VALUE\tCOUNT\tMEMBERS")
	for _, g := range groups {
		ids := make([]string, 0, len(g.MemberIDs))
		for _, id := range g.MemberIDs {
			ids = append(ids, fmt.Sprint(id))
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", g.Value, g.Count, strings.Join(ids, ","))
	}
	fmt.Fprintln(w)
}

func init() {
	duplicatesCmd.Flags().StringVarP(&duplicatesType, "type", "t", service.CriterionAll, "email, name, national_id or all")

	mergeCmd.Flags().Int64Var(&mergeTarget, "target", 0, "member id to keep")
	mergeCmd.Flags().Int64SliceVar(&mergeSources, "sources", nil, "member ids to merge into the target")
	_ = mergeCmd.MarkFlagRequired("target")
	_ = mergeCmd.MarkFlagRequired("sources")

	rootCmd.AddCommand(duplicatesCmd, mergeCmd)
}
