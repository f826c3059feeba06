package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"sudooom.storefront/internal/service"
)

func notificationsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Notification housekeeping",
	}

	var page int
	list := &cobra.Command{
		Use:   "list",
		Short: "Print a page of notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.apiClient().ListNotifications(cmd.Context(), page, a.cfg.Chat.NotificationPageSize)
			if err != nil {
				return err
			}
			for _, n := range out.Data {
				mark := " "
				if !n.IsRead {
					mark = "*"
				}
				fmt.Fprintf(a.out, "%s %s  %-8s %s: %s\n", mark, n.CreatedAt.Label(), n.Type, n.Title, n.Content)
			}
			fmt.Fprintf(a.out, "page %d of %d\n", out.Paginate.Page, out.Paginate.TotalPage)
			return nil
		},
	}
	list.Flags().IntVar(&page, "page", 1, "Page number")

	var all bool
	read := &cobra.Command{
		Use:   "read [id]",
		Short: "Mark a notification, or --all, as read",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return errors.New("pass either a notification id or --all")
			}
			session := service.NewNotificationSession(service.NotificationDeps{
				API:         a.apiClient(),
				Cache:       a.cache,
				Invalidator: a.invalidator,
				Toaster:     a.toaster(),
				Logger:      a.logger,
			}, a.notificationOptions())
			defer session.Close()

			if all {
				return session.MarkAllRead(cmd.Context())
			}
			return session.MarkRead(cmd.Context(), args[0])
		},
	}
	read.Flags().BoolVar(&all, "all", false, "Mark every notification as read")

	cmd.AddCommand(list, read)
	return cmd
}
