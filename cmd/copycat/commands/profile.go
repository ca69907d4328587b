package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/strrl/copycat/internal/router"
	"github.com/strrl/copycat/internal/service"
	"github.com/strrl/copycat/internal/store"
)

// NewProfileCommand creates the profile command
func NewProfileCommand(rt *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or change the account profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.enter(router.Profile); err != nil {
				return err
			}
			return showProfile(cmd, rt)
		},
	}

	cmd.AddCommand(
		newProfileUpdateCommand(rt),
		newProfilePasswordCommand(rt),
		newProfilePrefsCommand(rt),
	)
	return cmd
}

type profileView struct {
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	Bio         string            `json:"bio"`
	Title       string            `json:"title"`
	Plan        string            `json:"plan"`
	Preferences store.Preferences `json:"preferences"`
}

func showProfile(cmd *cobra.Command, rt *cliState) error {
	info := rt.app.Users.UserInfo()
	v := profileView{
		Name:        info.Name,
		Email:       info.Email,
		Bio:         info.Bio,
		Title:       info.Title,
		Plan:        rt.app.Users.Membership().Plan,
		Preferences: rt.app.Users.Preferences(),
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", v.Name)
	fmt.Fprintf(&b, "- **Email:** %s\n", v.Email)
	fmt.Fprintf(&b, "- **Title:** %s\n", v.Title)
	fmt.Fprintf(&b, "- **Plan:** %s\n\n", v.Plan)
	fmt.Fprintf(&b, "%s\n\n", v.Bio)
	b.WriteString("## Preferences\n\n")
	fmt.Fprintf(&b, "- Email notifications: %s\n", onOff(v.Preferences.EmailNotifications))
	fmt.Fprintf(&b, "- Marketing emails: %s\n", onOff(v.Preferences.MarketingEmails))
	fmt.Fprintf(&b, "- Dark mode: %s\n", onOff(v.Preferences.DarkMode))

	return rt.output(cmd.OutOrStdout(), v, b.String())
}

func newProfileUpdateCommand(rt *cliState) *cobra.Command {
	var req service.UpdateProfileRequest

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change nickname, avatar or bio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req == (service.UpdateProfileRequest{}) {
				return fmt.Errorf("nothing to update, pass --nickname, --avatar or --bio")
			}
			if err := rt.enter(router.Profile); err != nil {
				return err
			}
			res := rt.app.Users.UpdateProfile(cmd.Context(), req)
			if !res.Success() {
				return resultError(res)
			}
			return rt.say(cmd.OutOrStdout(), res.Message)
		},
	}

	cmd.Flags().StringVar(&req.Nickname, "nickname", "", "New display name")
	cmd.Flags().StringVar(&req.Avatar, "avatar", "", "Avatar URL")
	cmd.Flags().StringVar(&req.Bio, "bio", "", "Short bio")
	return cmd
}

func newProfilePasswordCommand(rt *cliState) *cobra.Command {
	var oldPassword, newPassword string

	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change the account password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.enter(router.Profile); err != nil {
				return err
			}
			res := rt.app.Users.ChangePassword(cmd.Context(), oldPassword, newPassword)
			if !res.Success() {
				return resultError(res)
			}
			return rt.say(cmd.OutOrStdout(), res.Message)
		},
	}

	cmd.Flags().StringVar(&oldPassword, "old", "", "Current password")
	cmd.Flags().StringVar(&newPassword, "new", "", "New password")
	_ = cmd.MarkFlagRequired("old")
	_ = cmd.MarkFlagRequired("new")
	return cmd
}

func newProfilePrefsCommand(rt *cliState) *cobra.Command {
	var email, marketing, dark bool

	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Toggle local notification and display preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.enter(router.Profile); err != nil {
				return err
			}
			var u store.PreferencesUpdate
			flags := cmd.Flags()
			if flags.Changed("email-notifications") {
				u.EmailNotifications = &email
			}
			if flags.Changed("marketing-emails") {
				u.MarketingEmails = &marketing
			}
			if flags.Changed("dark-mode") {
				u.DarkMode = &dark
			}
			rt.app.Users.UpdatePreferences(u)
			return showProfile(cmd, rt)
		},
	}

	cmd.Flags().BoolVar(&email, "email-notifications", false, "Receive email notifications")
	cmd.Flags().BoolVar(&marketing, "marketing-emails", false, "Receive marketing emails")
	cmd.Flags().BoolVar(&dark, "dark-mode", false, "Prefer the dark theme")
	return cmd
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
