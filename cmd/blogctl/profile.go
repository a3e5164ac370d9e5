package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cppla/miniblog/blog"
)

func newProfileCmd(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or change your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := s.app.User(s.ctx(cmd), s.sid)
			if err != nil {
				return err
			}
			user.PasswordHash = ""
			return s.print(user, func(w io.Writer) {
				fmt.Fprintf(w, "Username:     %s\n", user.Username)
				fmt.Fprintf(w, "Display name: %s\n", user.DisplayName)
				fmt.Fprintf(w, "Email:        %s\n", user.Email)
				fmt.Fprintf(w, "Bio:          %s\n", user.Bio)
				if user.ProfilePicture != "" {
					fmt.Fprintln(w, "Picture:      set")
				}
				fmt.Fprintf(w, "Member since: %s\n", user.CreatedAt.Local().Format("2006-01-02"))
			})
		},
	}
	cmd.AddCommand(newProfileUpdateCmd(s), newProfileDeleteCmd(s))
	return cmd
}

func newProfileUpdateCmd(s *state) *cobra.Command {
	var in blog.ProfileInput
	var picture string
	var changePassword bool
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update your profile",
		Long:  "Update your profile. Unset flags keep the current values.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := s.ctx(cmd)
			user, err := s.app.User(ctx, s.sid)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("display-name") {
				in.DisplayName = user.DisplayName
			}
			if !flags.Changed("email") {
				in.Email = user.Email
			}
			if !flags.Changed("bio") {
				in.Bio = user.Bio
			}
			if picture != "" {
				if in.Picture, err = blog.EncodeImage(ctx, fileUpload(picture), s.app.MaxMediaBytes()); err != nil {
					return err
				}
			}
			if changePassword {
				if in.NewPassword, err = s.password("New password: "); err != nil {
					return err
				}
			}
			if _, err := s.app.UpdateProfile(ctx, s.sid, in); err != nil {
				return err
			}
			fmt.Fprintln(s.out, "Profile updated")
			return nil
		},
	}
	cmd.Flags().StringVar(&in.DisplayName, "display-name", "", "Display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&in.Bio, "bio", "", "Short bio")
	cmd.Flags().StringVar(&picture, "picture", "", "Path of a new profile picture")
	cmd.Flags().BoolVar(&in.RemovePicture, "remove-picture", false, "Remove the profile picture")
	cmd.Flags().BoolVar(&changePassword, "change-password", false, "Prompt for a new password")
	return cmd
}

func newProfileDeleteCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Delete your account and all of your posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.app.DeleteAccount(s.ctx(cmd), s.sid, s.confirm()); err != nil {
				return err
			}
			fmt.Fprintln(s.out, "Account deleted")
			return nil
		},
	}
}
