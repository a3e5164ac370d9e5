package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newNotificationsCmd(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notif"},
		Short:   "List your notifications, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := s.app.Notifications(s.ctx(cmd), s.sid)
			if err != nil {
				return err
			}
			return s.print(items, func(w io.Writer) {
				if len(items) == 0 {
					fmt.Fprintln(w, "No notifications.")
					return
				}
				for _, n := range items {
					mark := " "
					if !n.Read {
						mark = "*"
					}
					fmt.Fprintf(w, "%s %s  %s\n", mark, n.CreatedAt.Local().Format("2006-01-02 15:04"), n.Message)
				}
			})
		},
	}

	read := &cobra.Command{
		Use:   "read",
		Short: "Mark all notifications read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.app.MarkNotificationsRead(s.ctx(cmd), s.sid); err != nil {
				return err
			}
			fmt.Fprintln(s.out, "All notifications marked read")
			return nil
		},
	}
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete your notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.app.ClearNotifications(s.ctx(cmd), s.sid); err != nil {
				return err
			}
			fmt.Fprintln(s.out, "Notifications cleared")
			return nil
		},
	}
	cmd.AddCommand(read, clearCmd)
	return cmd
}
