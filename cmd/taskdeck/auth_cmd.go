package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/evanschultz/taskdeck/internal/app"
	"github.com/spf13/cobra"
)

func loginCmd(opts *globalOptions, stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd.Context(), opts, stderr)
			if err != nil {
				return err
			}
			defer rt.Close()
			ctx := rt.commandContext(cmd.Context(), "login")

			ask := newPrompter(stdin, stderr)
			if username == "" {
				if username, err = ask.line("username: "); err != nil {
					return err
				}
			}
			password, err := ask.secret("password: ")
			if err != nil {
				return err
			}

			sess, err := rt.svc.Login(ctx, username, password)
			if err != nil {
				rt.logger.Warn("login failed", "username", username, "err", err)
				return err
			}
			rt.logger.Info("signed in", "username", sess.User.Username, "user_id", sess.User.ID)
			_, _ = fmt.Fprintf(stdout, "signed in as %s\n", sess.User.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username (prompted when empty)")
	return cmd
}

func registerCmd(opts *globalOptions, stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var username, email string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd.Context(), opts, stderr)
			if err != nil {
				return err
			}
			defer rt.Close()
			ctx := rt.commandContext(cmd.Context(), "register")

			ask := newPrompter(stdin, stderr)
			if username == "" {
				if username, err = ask.line("username: "); err != nil {
					return err
				}
			}
			if email == "" {
				if email, err = ask.line("email: "); err != nil {
					return err
				}
			}
			password, err := ask.secret("password: ")
			if err != nil {
				return err
			}
			confirm, err := ask.secret("confirm password: ")
			if err != nil {
				return err
			}
			if password != confirm {
				return errors.New("passwords do not match")
			}

			sess, err := rt.svc.Register(ctx, username, email, password)
			if err != nil {
				rt.logger.Warn("register failed", "username", username, "err", err)
				return err
			}
			rt.logger.Info("registered", "username", sess.User.Username, "user_id", sess.User.ID)
			_, _ = fmt.Fprintf(stdout, "registered and signed in as %s\n", sess.User.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username (prompted when empty)")
	cmd.Flags().StringVarP(&email, "email", "e", "", "email (prompted when empty)")
	return cmd
}

func logoutCmd(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd.Context(), opts, stderr)
			if err != nil {
				return err
			}
			defer rt.Close()
			if err := rt.svc.Logout(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(stdout, "signed out")
			return nil
		},
	}
}

func whoamiCmd(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd.Context(), opts, stderr)
			if err != nil {
				return err
			}
			defer rt.Close()
			user, ok := rt.svc.CurrentUser()
			if !ok {
				return app.ErrNotSignedIn
			}
			_, _ = fmt.Fprintf(stdout, "username: %s\n", user.Username)
			_, _ = fmt.Fprintf(stdout, "user_id: %d\n", user.ID)
			if user.Email != "" {
				_, _ = fmt.Fprintf(stdout, "email: %s\n", user.Email)
			}
			if sess, ok := rt.sessions.Current(); ok && sess.ExpiresAt != nil {
				_, _ = fmt.Fprintf(stdout, "expires: %s\n", sess.ExpiresAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func passwdCmd(opts *globalOptions, stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change the signed-in user's password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd.Context(), opts, stderr)
			if err != nil {
				return err
			}
			defer rt.Close()
			ctx := rt.commandContext(cmd.Context(), "passwd")

			ask := newPrompter(stdin, stderr)
			current, err := ask.secret("current password: ")
			if err != nil {
				return err
			}
			next, err := ask.secret("new password: ")
			if err != nil {
				return err
			}
			confirm, err := ask.secret("confirm new password: ")
			if err != nil {
				return err
			}
			if next != confirm {
				return errors.New("new passwords do not match")
			}
			if err := rt.svc.ChangePassword(ctx, current, next); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(stdout, "password changed")
			return nil
		},
	}
}
