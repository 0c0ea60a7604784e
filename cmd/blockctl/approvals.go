package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/localnerve/blockrelease/internal/store"
	"github.com/spf13/cobra"
)

func newApprovalsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approvals",
		Short: "Production approval requests",
	}

	cmd.AddCommand(newApprovalsListCmd(opts))
	cmd.AddCommand(newApprovalsSubmitCmd(opts))
	cmd.AddCommand(newApprovalsReviewCmd(opts, "approve"))
	cmd.AddCommand(newApprovalsReviewCmd(opts, "reject"))
	return cmd
}

func newApprovalsListCmd(opts *rootOptions) *cobra.Command {
	var (
		filter   store.ApprovalFilter
		page     int
		pageSize int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List approval requests, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			filter.Page = store.Page{Page: page, PageSize: pageSize}.Normalize()
			result, err := e.releases.ListApprovalRequests(context.Background(), filter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(result.Items) == 0 {
				fmt.Fprintln(out, "No approval requests found.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tBLOCK\tVERSION\tSTATUS\tREQUESTED BY\tREQUESTED AT\tREVIEWED BY")
			for _, r := range result.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					r.ID, truncate(r.BlockName, 30), r.Version, r.Status, r.RequestedBy,
					formatTime(&r.RequestedAt), orDash(r.ReviewedBy))
			}
			w.Flush()
			fmt.Fprintf(out, "Page %d of %d (%d total)\n", result.Page, result.TotalPages, result.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.Status, "status", "", "filter by status (pending, approved, rejected)")
	cmd.Flags().StringVar(&filter.BlockID, "block", "", "filter by block ID")
	cmd.Flags().StringVar(&filter.VersionID, "version", "", "filter by version ID")
	cmd.Flags().IntVar(&page, "page", store.DefaultPage, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", store.DefaultPageSize, "page size")
	return cmd
}

func newApprovalsSubmitCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <version-id>",
		Short: "Request production approval for a version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			req, err := e.releases.SubmitApproval(context.Background(), opts.actor, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Submitted %s@%s for approval (request %s)\n", req.BlockName, req.Version, req.ID)
			return nil
		},
	}
}

func newApprovalsReviewCmd(opts *rootOptions, verb string) *cobra.Command {
	var comment string

	short := "Approve a pending approval request"
	if verb == "reject" {
		short = "Reject a pending approval request (comment required)"
	}

	cmd := &cobra.Command{
		Use:   verb + " <request-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect(opts)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := context.Background()
			review := e.releases.ApproveRequest
			if verb == "reject" {
				review = e.releases.RejectRequest
			}
			req, err := review(ctx, opts.actor, args[0], comment)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Request %s for %s@%s is now %s\n", req.ID, req.BlockName, req.Version, req.Status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&comment, "comment", "m", "", "review comment")
	if verb == "reject" {
		cmd.MarkFlagRequired("comment")
	}
	return cmd
}
