package commands

import (
	"context"
	"fmt"
	"os"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/nhle/tasktracker/internal/app"
	"github.com/nhle/tasktracker/internal/config"
	"github.com/nhle/tasktracker/internal/credential"
	"github.com/nhle/tasktracker/internal/logging"
	"github.com/nhle/tasktracker/internal/session"
)

// newSession builds a session from the command's flags and config file.
// The returned logger is the one the session writes to, so the TUI can
// share it.
func newSession(cmd *cobra.Command, withLogFile bool) (*session.Session, *zap.SugaredLogger, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if url, _ := cmd.Flags().GetString("api-url"); url != "" {
		cfg.API.BaseURL = url
	}

	logger := logging.Nop()
	if withLogFile {
		logger, err = logging.New(cfg.Log)
		if err != nil {
			return nil, nil, err
		}
	}

	return session.New(cfg.API.BaseURL, credential.Store{}, logger), logger, nil
}

// NewRunCommand creates the command that launches the TUI dashboard.
func NewRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Launch the dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, logger, err := newSession(cmd, true)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			program := tea.NewProgram(
				app.New(sess, logger),
				tea.WithAltScreen(),
			)
			_, err = program.Run()
			return err
		},
	}
}

// NewLoginCommand creates the scripted login command. It prompts for a
// password on the terminal and persists the token on success.
func NewLoginCommand() *cobra.Command {
	loginCmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Sign in and persist the API token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := newSession(cmd, false)
			if err != nil {
				return err
			}

			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				fmt.Fprint(os.Stderr, "Password: ")
				raw, err := term.ReadPassword(int(syscall.Stdin))
				fmt.Fprintln(os.Stderr)
				if err != nil {
					return fmt.Errorf("reading password: %w", err)
				}
				password = string(raw)
			}

			user, err := sess.Login(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			fmt.Printf("Signed in as %s\n", user.Username)
			return nil
		},
	}
	loginCmd.Flags().String("password", "", "password (prompted when omitted)")
	return loginCmd
}

// NewLogoutCommand creates the command that clears the persisted token.
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the persisted API token",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := newSession(cmd, false)
			if err != nil {
				return err
			}
			sess.Logout()
			fmt.Println("Signed out")
			return nil
		},
	}
}

// NewWhoamiCommand creates the command that prints the current user.
func NewWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the currently signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := newSession(cmd, false)
			if err != nil {
				return err
			}
			if err := sess.Initialize(context.Background()); err != nil {
				return err
			}
			user := sess.User()
			if user == nil {
				return fmt.Errorf("not signed in")
			}
			fmt.Printf("%s <%s>\n", user.Username, user.Email)
			return nil
		},
	}
}
