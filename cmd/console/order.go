package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"sudooom.storefront/internal/model"
	"sudooom.storefront/internal/orderstate"
	"sudooom.storefront/internal/service"
)

func orderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Order status transitions",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "can <from> <to>",
			Short: "Check whether a status change is allowed",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				from, to, err := parsePair(args[0], args[1])
				if err != nil {
					return err
				}
				verdict := "not allowed"
				if orderstate.CanTransition(from, to) {
					verdict = "allowed"
				}
				fmt.Fprintf(a.out, "%s -> %s: %s\n", from, to, verdict)
				return nil
			},
		},
		&cobra.Command{
			Use:   "next <status>",
			Short: "List the statuses an order can move to",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				status, err := model.ParseOrderStatus(args[0])
				if err != nil {
					return err
				}
				next := orderstate.Next(status)
				if len(next) == 0 {
					fmt.Fprintf(a.out, "%s is final\n", status)
					return nil
				}
				names := make([]string, len(next))
				for i, s := range next {
					names[i] = string(s)
				}
				fmt.Fprintf(a.out, "%s -> %s\n", status, strings.Join(names, ", "))
				return nil
			},
		},
		&cobra.Command{
			Use:   "update <order-id> <from> <to>",
			Short: "Change an order's status",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				from, to, err := parsePair(args[1], args[2])
				if err != nil {
					return err
				}
				svc := service.NewOrderService(a.apiClient(), a.invalidator, a.toaster(), a.logger)
				_, err = svc.UpdateStatus(cmd.Context(), args[0], from, to)
				return err
			},
		},
		&cobra.Command{
			Use:   "parity <file>",
			Short: "Compare the client transition table with a backend export",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()

				remote, err := orderstate.LoadTable(f)
				if err != nil {
					return err
				}
				mismatches := orderstate.CheckParity(remote)
				if len(mismatches) == 0 {
					fmt.Fprintln(a.out, "transition tables match")
					return nil
				}
				for _, m := range mismatches {
					fmt.Fprintln(a.out, m.String())
				}
				return fmt.Errorf("transition tables differ in %d pairs", len(mismatches))
			},
		},
	)
	return cmd
}

// parsePair parses both status names; legality is checked by the caller
func parsePair(from, to string) (model.OrderStatus, model.OrderStatus, error) {
	f, err := model.ParseOrderStatus(from)
	if err != nil {
		return "", "", err
	}
	t, err := model.ParseOrderStatus(to)
	if err != nil {
		return "", "", err
	}
	return f, t, nil
}
