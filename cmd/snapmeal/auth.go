package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/snapmeal/snapmeal-go/internal/apiclient"
)

func passwordFrom(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv("SNAPMEAL_PASSWORD")
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session tokens",
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := a.auth.SignIn(cmd.Context(), email, passwordFrom(password))
			if err != nil {
				return err
			}
			return a.emit(map[string]any{"role": result.Role, "expires_at": a.session.ExpiresAt()}, func() {
				a.printf("signed in as %s (role=%s)\n", email, result.Role)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (or SNAPMEAL_PASSWORD)")
	return cmd
}

func newSignupCmd(a *app) *cobra.Command {
	var (
		req     apiclient.SignUpRequest
		confirm string
	)

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register a new account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.Password = passwordFrom(req.Password)
			req.PasswordConfirm = confirm
			if req.PasswordConfirm == "" {
				req.PasswordConfirm = req.Password
			}
			if err := a.auth.SignUp(cmd.Context(), req); err != nil {
				return err
			}
			return a.emit(map[string]string{"email": req.Email}, func() {
				a.printf("registered %s, run `snapmeal login` to sign in\n", req.Email)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Email, "email", "", "account email")
	f.StringVar(&req.Password, "password", "", "password (or SNAPMEAL_PASSWORD)")
	f.StringVar(&confirm, "password-confirm", "", "password confirmation, defaults to --password")
	f.StringVar(&req.Nickname, "nickname", "", "display name")
	f.StringVar(&req.Gender, "gender", "", "MALE or FEMALE")
	f.IntVar(&req.Age, "age", 0, "age in years")
	f.Float64Var(&req.HeightCm, "height", 0, "height in cm")
	f.Float64Var(&req.WeightKg, "weight", 0, "weight in kg")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.auth.Logout(cmd.Context()); err != nil {
				return err
			}
			a.printf("signed out\n")
			return nil
		},
	}
}

func newWithdrawCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Delete the account and clear the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("withdraw deletes the account permanently, pass --yes to confirm")
			}
			if err := a.auth.Withdraw(cmd.Context()); err != nil {
				return err
			}
			a.printf("account withdrawn\n")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm account deletion")
	return cmd
}

func newMeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the signed-in profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			u, err := a.auth.Me(cmd.Context())
			if err != nil {
				return err
			}
			return a.emit(u, func() {
				a.printf("%s <%s>\n", u.Nickname, u.Email)
				a.printf("  gender=%s age=%d height=%.1fcm weight=%.1fkg\n", u.Gender, u.Age, u.HeightCm, u.WeightKg)
				a.printf("  recommended=%s\n", kcal(u.RecommendedCalories))
			})
		},
	}
}
