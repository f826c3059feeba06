package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sudooom.storefront/internal/api"
	"sudooom.storefront/internal/service"
)

func chatCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat actions",
	}

	var (
		admin          bool
		conversationID string
		older          int
	)
	send := &cobra.Command{
		Use:   "send <text>",
		Short: "Send a message",
		Long: `Send a message to the shop, or with --admin to a customer conversation.
An end user without a conversation gets one created first.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, scope := service.ModeUser, api.ScopeUser
			if admin {
				mode, scope = service.ModeAdmin, api.ScopeAdmin
			}
			session := service.NewChatSession(service.ChatDeps{
				Opener:      a.connector(),
				API:         a.apiClient().Chat(scope),
				Cache:       a.cache,
				Invalidator: a.invalidator,
				Toaster:     a.toaster(),
				Logger:      a.logger,
			}, a.chatOptions(mode))
			defer session.Close()

			ctx := cmd.Context()
			if err := session.Open(ctx); err != nil {
				return err
			}
			if conversationID != "" {
				if err := session.Select(ctx, conversationID); err != nil {
					return err
				}
			}

			msg, err := session.SendText(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "sent %s to %s\n", msg.ID, session.Selected())

			for i := 0; i < older; i++ {
				more, err := session.LoadOlder(ctx)
				if err != nil {
					return err
				}
				if !more {
					break
				}
			}
			for _, m := range session.Messages() {
				sender := m.Sender.DisplayName()
				if sender == "" {
					sender = service.GenericSender
				}
				fmt.Fprintf(a.out, "%s  %s: %s\n", m.CreatedAt.Label(), sender, m.Content)
			}
			return nil
		},
	}
	send.Flags().BoolVar(&admin, "admin", false, "Send from the admin console")
	send.Flags().StringVar(&conversationID, "conversation", "", "Conversation id (defaults to the first one)")
	send.Flags().IntVar(&older, "history", 0, "Older pages to load before printing the conversation")

	cmd.AddCommand(send)
	return cmd
}
