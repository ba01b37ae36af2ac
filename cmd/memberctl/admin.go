package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qs3c/members_server/internal/model"
	"github.com/qs3c/members_server/internal/model/dto"
)

var adminReq dto.CreateMemberRequest

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an approved superadmin account",
	Long: `Create the first superadmin. When --password is omitted a temporary
password is generated and printed once.

Example:
  memberctl create-admin --email admin@example.org --first-name Ada --last-name Admin`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		adminReq.MemberType = model.MemberTypeSupporter

		created, err := current.Members.Create(ctx, &adminReq, nil)
		if err != nil {
			return err
		}
		if _, err := current.Members.ChangeRole(ctx, created.Member.ID, model.RoleSuperAdmin, nil); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "superadmin %s created (id %d)\n", created.Member.Email, created.Member.ID)
		if created.TemporaryPassword != "" {
			fmt.Fprintf(out, "temporary password: %s\n", created.TemporaryPassword)
		}
		return nil
	},
}

func init() {
	f := createAdminCmd.Flags()
	f.StringVar(&adminReq.Email, "email", "", "login email")
	f.StringVar(&adminReq.FirstName, "first-name", "", "first name")
	f.StringVar(&adminReq.LastName, "last-name", "", "last name")
	f.StringVar(&adminReq.Password, "password", "", "password (generated when empty)")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("first-name")
	_ = createAdminCmd.MarkFlagRequired("last-name")

	rootCmd.AddCommand(createAdminCmd)
}
