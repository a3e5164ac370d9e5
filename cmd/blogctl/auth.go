package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cppla/miniblog/blog"
)

func newSignupCmd(s *state) *cobra.Command {
	var in blog.SignupInput
	cmd := &cobra.Command{
		Use:   "signup <username>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Username = args[0]
			var err error
			if in.Password, err = s.password("Password: "); err != nil {
				return err
			}
			if in.ConfirmPassword, err = s.password("Confirm password: "); err != nil {
				return err
			}
			if err := s.app.Signup(s.ctx(cmd), in); err != nil {
				return err
			}
			fmt.Fprintf(s.out, "Account %s created, log in with: blogctl login %s\n", in.Username, in.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.DisplayName, "display-name", "", "Display name (defaults to the username)")
	cmd.Flags().StringVar(&in.Email, "email", "", "Email address")
	return cmd
}

func newLoginCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "login <username>",
		Short: "Log in on the current context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := s.password("Password: ")
			if err != nil {
				return err
			}
			sess, err := s.app.Login(s.ctx(cmd), s.sid, args[0], pw)
			if err != nil {
				return err
			}
			fmt.Fprintf(s.out, "Logged in as %s\n", sess.DisplayName)
			return nil
		},
	}
}

func newLogoutCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out of the current context",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.app.Logout(s.ctx(cmd), s.sid); err != nil {
				return err
			}
			fmt.Fprintln(s.out, "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := s.app.Current(s.ctx(cmd), s.sid)
			if sess == nil {
				return blog.ErrLoginRequired
			}
			return s.print(sess, func(w io.Writer) {
				fmt.Fprintf(w, "%s (%s)\n", sess.DisplayName, sess.Username)
			})
		},
	}
}
