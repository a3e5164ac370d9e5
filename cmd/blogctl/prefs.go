package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newThemeCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark|toggle]",
		Short:     "Show or set the theme of this context",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"light", "dark", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := s.ctx(cmd)
			switch {
			case len(args) == 0:
			case args[0] == "toggle":
				if _, err := s.app.ToggleTheme(ctx, s.sid); err != nil {
					return err
				}
			default:
				if err := s.app.SetTheme(ctx, s.sid, args[0]); err != nil {
					return err
				}
			}
			fmt.Fprintln(s.out, s.app.Theme(ctx, s.sid))
			return nil
		},
	}
}

func newDraftCmd(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Show the unsent post draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			draft := s.app.Draft(s.ctx(cmd), s.sid)
			return s.print(draft, func(w io.Writer) {
				if draft == nil {
					fmt.Fprintln(w, "No draft.")
					return
				}
				fmt.Fprintf(w, "%s\n\n%s\n", draft.Title, draft.Content)
			})
		},
	}

	var title, content string
	save := &cobra.Command{
		Use:   "save",
		Short: "Save a draft for the next post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.app.SaveDraft(s.ctx(cmd), s.sid, title, content); err != nil {
				return err
			}
			fmt.Fprintln(s.out, "Draft saved")
			return nil
		},
	}
	save.Flags().StringVarP(&title, "title", "t", "", "Draft title")
	save.Flags().StringVarP(&content, "content", "c", "", "Draft content")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Discard the draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.app.ClearDraft(s.ctx(cmd), s.sid); err != nil {
				return err
			}
			fmt.Fprintln(s.out, "Draft cleared")
			return nil
		},
	}

	cmd.AddCommand(save, clearCmd)
	return cmd
}
