package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/SscSPs/hera_engine/internal/core/domain"
	"github.com/SscSPs/hera_engine/internal/dto"
)

func newOrgCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "org",
		Short: "Onboard organizations and manage members",
	}
	cmd.AddCommand(newOrgCreateCommand(opts), newOrgAddMemberCommand(opts))
	return cmd
}

func newOrgCreateCommand(opts *RootOptions) *cobra.Command {
	var req dto.CreateOrganizationRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an organization with its first OWNER",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, ctx, err := opts.openEngine(cmd.Context(), os.Stderr)
			if err != nil {
				return err
			}
			defer e.Close()

			org, err := e.services.Organization.CreateOrganization(ctx, req)
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), org)
			}
			return writeTable(cmd.OutOrStdout(),
				[]string{"ORGANIZATION ID", "CODE", "NAME", "CURRENCY"},
				[][]string{{org.OrganizationID, org.Code, org.Name, org.Currency}})
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "organization name")
	cmd.Flags().StringVar(&req.Code, "code", "", "unique organization code")
	cmd.Flags().StringVar(&req.Currency, "currency", "USD", "base currency (ISO 4217)")
	cmd.Flags().StringVar(&req.OwnerUserID, "owner", "", "user id of the first OWNER")
	cmd.Flags().IntVar(&req.FiscalYearStartMonth, "fiscal-start", 1, "month the fiscal year starts (1-12)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func newOrgAddMemberCommand(opts *RootOptions) *cobra.Command {
	var (
		actx domain.ActorContext
		req  dto.AddMemberRequest
		role string
	)

	cmd := &cobra.Command{
		Use:   "add-member",
		Short: "Grant a user a role in an organization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, ctx, err := opts.openEngine(cmd.Context(), os.Stderr)
			if err != nil {
				return err
			}
			defer e.Close()

			req.Role = domain.MemberRole(role)
			member, err := e.services.Organization.AddMember(ctx, actx, req)
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), member)
			}
			return writeTable(cmd.OutOrStdout(),
				[]string{"ORGANIZATION ID", "USER ID", "ROLE"},
				[][]string{{member.OrganizationID, member.UserID, string(member.Role)}})
		},
	}

	cmd.Flags().StringVar(&actx.OrganizationID, "org", "", "organization id")
	cmd.Flags().StringVar(&actx.ActorUserID, "actor", "", "OWNER or ADMIN performing the change")
	cmd.Flags().StringVar(&req.UserID, "user", "", "user id to grant")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleMember), "OWNER, ADMIN, MEMBER, READONLY or REMOVED")
	for _, f := range []string{"org", "actor", "user"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}
