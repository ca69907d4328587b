package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/strrl/copycat/internal/router"
	"github.com/strrl/copycat/internal/service"
	"github.com/strrl/copycat/internal/store"
)

// passwordEnv lets scripts log in without putting the password on the command line
const passwordEnv = "COPYCAT_PASSWORD"

// NewLoginCommand creates the login command
func NewLoginCommand(rt *cliState) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readPassword(cmd, password)
			if err != nil {
				return err
			}
			res := rt.app.Users.Login(cmd.Context(), service.LoginRequest{Email: email, Password: pw})
			if !res.Success() {
				return resultError(res)
			}
			if _, err := rt.app.Router.Navigate(router.Home); err != nil {
				return err
			}
			return rt.say(cmd.OutOrStdout(), fmt.Sprintf("%s as %s", res.Message, email))
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

// NewRegisterCommand creates the register command
func NewRegisterCommand(rt *cliState) *cobra.Command {
	var email, password, nickname string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readPassword(cmd, password)
			if err != nil {
				return err
			}
			res := rt.app.Users.Register(cmd.Context(), service.RegisterRequest{
				Email:    email,
				Password: pw,
				Nickname: nickname,
			})
			if !res.Success() {
				return resultError(res)
			}
			return rt.say(cmd.OutOrStdout(), res.Message+", you can now log in")
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (prompted when omitted)")
	cmd.Flags().StringVarP(&nickname, "nickname", "n", "", "Display name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

// NewLogoutCommand creates the logout command
func NewLogoutCommand(rt *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt.app.Users.Logout()
			rt.app.Projects.ClearProjects()
			rt.app.Router.ForceLogin()
			return rt.say(cmd.OutOrStdout(), "logged out")
		},
	}
}

// NewWhoamiCommand creates the whoami command
func NewWhoamiCommand(rt *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.enter(router.Profile); err != nil {
				return err
			}
			u := rt.app.Users.User()
			if u == nil {
				return ErrNotLoggedIn
			}
			if rt.jsonOutput {
				return rt.output(cmd.OutOrStdout(), u, "")
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", rt.app.Users.UserInfo().Name, u.Email)
			return err
		},
	}
}

// readPassword returns flag, then $COPYCAT_PASSWORD, then a prompt when stdin
// is a terminal
func readPassword(cmd *cobra.Command, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if pw := os.Getenv(passwordEnv); pw != "" {
		return pw, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no password given, pass --password or set %s", passwordEnv)
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	pw := strings.TrimSpace(string(raw))
	if pw == "" {
		return "", errors.New("password cannot be empty")
	}
	return pw, nil
}

// resultError turns a failed store result into an error for cobra
func resultError(res store.Result) error {
	if res.Err != nil {
		return res.Err
	}
	return errors.New(res.Message)
}
