package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blogapi/blog-service/internal/core/ports"
	"github.com/blogapi/blog-service/internal/pkg/config"
)

// opener yields the identity service plus a release func for the backing store.
type opener func(ctx context.Context) (ports.IdentityService, *config.Config, func(), error)

func newRootCmd(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "blogctl",
		Short:         "Administer blog identities",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newUserCmd(open))
	root.AddCommand(newSeedCmd(open))
	return root
}

func newUserCmd(open opener) *cobra.Command {
	user := &cobra.Command{Use: "user", Short: "Create, re-role or delete identities"}
	user.AddCommand(newUserCreateCmd(open))
	user.AddCommand(newUserRolesCmd(open))
	user.AddCommand(newUserDeleteCmd(open))
	return user
}

func newUserCreateCmd(open opener) *cobra.Command {
	var password string
	var roles []string
	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create an identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, release, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			id, err := svc.Register(cmd.Context(), args[0], password, roles)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %v\n", id.Username, id.Roles)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "Password for the new identity")
	cmd.Flags().StringSliceVar(&roles, "role", []string{"USER"}, "Role to grant (repeatable)")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUserRolesCmd(open opener) *cobra.Command {
	var roles []string
	cmd := &cobra.Command{
		Use:   "roles <username>",
		Short: "Replace the roles of an identity; live tokens pick them up on the next request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, release, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			if err := svc.SetRoles(cmd.Context(), args[0], roles); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s %v\n", args[0], roles)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&roles, "role", nil, "Role to grant (repeatable)")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func newUserDeleteCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete an identity; its outstanding tokens stop working",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, release, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			if err := svc.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func newSeedCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the configured admin identity when it is missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cfg, release, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			created, err := svc.SeedAdmin(cmd.Context(), cfg.Seed.Username, cfg.Seed.Password, cfg.Seed.Roles)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %s\n", cfg.Seed.Username)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already exists\n", cfg.Seed.Username)
			}
			return nil
		},
	}
}
