package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/localnerve/blockrelease/internal/registry"
	"github.com/spf13/cobra"
)

func newVersionsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "Block versions and publication",
	}

	cmd.AddCommand(newVersionsListCmd(opts))
	cmd.AddCommand(newVersionsPublishCmd(opts))
	cmd.AddCommand(newVersionsUnpublishCmd(opts))
	return cmd
}

func newVersionsListCmd(opts *rootOptions) *cobra.Command {
	var region string

	cmd := &cobra.Command{
		Use:   "list <block-id>",
		Short: "List a block's versions, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			versions, err := e.releases.ListBlockVersions(context.Background(), args[0], region)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(versions) == 0 {
				fmt.Fprintln(out, "No versions found.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tVERSION\tREGION\tSTATUS\tSTAGING\tPRODUCTION\tLIVE IN\tCREATED")
			for _, v := range versions {
				live := "-"
				if len(v.Environments) > 0 {
					labels := make([]string, len(v.Environments))
					for i, env := range v.Environments {
						labels[i] = registry.EnvironmentLabel(env)
					}
					live = strings.Join(labels, ",")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					v.ID, v.Version, v.Region, v.Status, v.StagingStatus, v.ProductionStatus, live, formatTime(&v.CreatedAt))
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVar(&region, "region", "", "region key; a concrete region also lists versions for every region")
	return cmd
}

func newVersionsPublishCmd(opts *rootOptions) *cobra.Command {
	var environment, region string

	cmd := &cobra.Command{
		Use:   "publish <version-id>",
		Short: "Publish a version to an environment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			v, err := e.releases.PublishVersion(context.Background(), opts.actor, args[0], environment, region)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published %s (%s) to %s\n", v.Version, v.Region, registry.EnvironmentLabel(environment))
			return nil
		},
	}

	cmd.Flags().StringVarP(&environment, "env", "e", "", "environment key ("+strings.Join(registry.EnvironmentKeys(), ", ")+")")
	cmd.Flags().StringVar(&region, "region", "", "expected region of the version")
	cmd.MarkFlagRequired("env")
	return cmd
}

func newVersionsUnpublishCmd(opts *rootOptions) *cobra.Command {
	var environment string

	cmd := &cobra.Command{
		Use:   "unpublish <version-id>",
		Short: "Withdraw a version from an environment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			v, err := e.releases.UnpublishVersion(context.Background(), opts.actor, args[0], environment)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unpublished %s (%s) from %s; status %s\n", v.Version, v.Region, registry.EnvironmentLabel(environment), v.Status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&environment, "env", "e", "", "environment key ("+strings.Join(registry.EnvironmentKeys(), ", ")+")")
	cmd.MarkFlagRequired("env")
	return cmd
}
