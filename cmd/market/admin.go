package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/sudo-init-do/marketfront/internal/admin"
)

func cmdAdmin(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("admin: expected users, reports or status")
	}
	id, err := a.identity()
	if err != nil {
		return err
	}
	if !id.IsAdmin() {
		return fmt.Errorf("admin: user %d is not an administrator", id.UserID)
	}
	svc := admin.NewService(a.api, admin.DefaultPageSize)

	switch args[0] {
	case "users":
		fs := pflag.NewFlagSet("admin users", pflag.ContinueOnError)
		page := fs.Int("page", 0, "zero-based page")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		users, err := svc.Users(ctx, id.Auth(), *page)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNICKNAME\tEMAIL\tROLE\tSTATUS")
		for _, u := range users.Content {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", u.UserID, u.Nickname, u.Email, u.Role, u.Status)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "page %d of %d\n", *page+1, max(users.TotalPages, 1))
		return nil

	case "reports":
		reports, err := svc.UnprocessedReports(ctx, id.Auth())
		if err != nil {
			return err
		}
		if len(reports) == 0 {
			fmt.Fprintln(a.out, "No open reports.")
			return nil
		}
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "REPORT\tFROM\tAGAINST\tREASON\tFILED")
		for _, r := range reports {
			fmt.Fprintf(tw, "%d\t%s\t%s (#%d)\t%s\t%s\n",
				r.ReportID, r.ReporterNickname, r.TargetNickname, r.TargetUserID, r.Reason, posted(r.CreatedAt))
		}
		return tw.Flush()

	case "status":
		if len(args) != 3 {
			return fmt.Errorf("admin status: expected <userId> ACTIVE|SUSPENDED")
		}
		userID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("admin status: invalid user id %q", args[1])
		}
		status := strings.ToUpper(args[2])
		if err := svc.SetUserStatus(ctx, id.Auth(), userID, status); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "User %d is now %s.\n", userID, status)
		return nil
	}
	return fmt.Errorf("admin: unknown subcommand %q", args[0])
}
