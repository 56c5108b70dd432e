package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/gallery-session/internal"
	"github.com/spf13/cobra"
)

var (
	loginToken      string
	loginUser       string
	loginServer     string
	loginIdentifier string
	loginPassword   string

	registerEmail    string
	registerUsername string
)

var (
	statusLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				Width(12)

	statusValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39"))
)

// loginCmd stores a credential, either given directly or issued by the server
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a sign-in credential",
	Long: `Store the bearer credential used for guarded pages.

Either pass a token issued elsewhere with --token, or sign in against the
server's login endpoint with --server, --identifier and --password.
Identifiers containing "@" are sent as an email address, anything else as a
username.

Examples:
  gallery-session login --token eyJhbGciOi...
  gallery-session login --server http://localhost:5000 --identifier alice --password s3cret`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnvironment()
		if err != nil {
			return err
		}
		defer env.Close()

		session := env.session()

		if loginToken != "" {
			if err := session.Login(internal.Grant{User: internal.Account{Username: loginUser}, AccessToken: loginToken}); err != nil {
				return err
			}
		} else {
			if loginServer == "" || loginIdentifier == "" {
				return fmt.Errorf("either --token or --server with --identifier is required")
			}
			issuer, err := internal.NewHTTPIssuer(loginServer, internal.WithAuthSession(session))
			if err != nil {
				return err
			}
			password, err := resolvePassword(loginPassword)
			if err != nil {
				return err
			}
			if err := session.SignIn(commandContext(cmd), issuer, loginIdentifier, password); err != nil {
				return err
			}
		}

		if !internal.IsCredentialUsable(session.Token(), time.Now()) {
			internal.PrintWarning("Stored credential is expired or malformed; guarded pages will redirect to login")
		} else if exp := credentialExpiry(session.Token()); exp != nil {
			internal.PrintInfo(fmt.Sprintf("Credential expires %s", exp.Local().Format(time.RFC3339)))
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✅ Signed in"))
		return nil
	},
}

// registerCmd creates an account on the server and stores its credential
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if loginServer == "" {
			return fmt.Errorf("--server is required")
		}

		env, err := openEnvironment()
		if err != nil {
			return err
		}
		defer env.Close()

		session := env.session()
		issuer, err := internal.NewHTTPIssuer(loginServer)
		if err != nil {
			return err
		}
		password, err := resolvePassword(loginPassword)
		if err != nil {
			return err
		}
		if err := session.SignUp(commandContext(cmd), issuer, registerEmail, registerUsername, password); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✅ Registered and signed in as %s", session.User())))
		return nil
	},
}

// logoutCmd clears the credential
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the sign-in credential",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnvironment()
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.session().Logout(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✅ Signed out"))
		return nil
	},
}

// statusCmd reports the credential state and its decoded expiry
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the sign-in state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnvironment()
		if err != nil {
			return err
		}
		defer env.Close()

		out := cmd.OutOrStdout()
		session := env.session()
		token := session.Token()

		printStatusLine(out, "State", session.State().String())
		if user := session.User(); user != "" {
			printStatusLine(out, "User", user)
		}
		if token == "" {
			return nil
		}

		claims, err := internal.DecodeClaims(token)
		if err != nil {
			printStatusLine(out, "Credential", errorStyle.Render("malformed"))
			internal.LogDebug("Decode failed: %v", err)
			return nil
		}
		if sub, err := claims.GetSubject(); err == nil && sub != "" {
			printStatusLine(out, "Subject", sub)
		}

		exp, err := internal.CredentialExpiry(claims)
		switch {
		case err != nil:
			printStatusLine(out, "Expires", errorStyle.Render("invalid exp claim"))
		case exp == nil:
			printStatusLine(out, "Expires", "never")
		default:
			printStatusLine(out, "Expires", exp.Local().Format(time.RFC3339))
		}

		if internal.IsCredentialUsable(token, time.Now()) {
			printStatusLine(out, "Usable", successStyle.Render("yes"))
		} else {
			printStatusLine(out, "Usable", warningStyle.Render("no (next guarded navigation clears it)"))
		}
		return nil
	},
}

// credentialExpiry returns the decoded exp of token, or nil when it has none
func credentialExpiry(token string) *time.Time {
	claims, err := internal.DecodeClaims(token)
	if err != nil {
		return nil
	}
	exp, err := internal.CredentialExpiry(claims)
	if err != nil {
		return nil
	}
	return exp
}

func printStatusLine(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%s %s\n", statusLabelStyle.Render(label+":"), statusValueStyle.Render(value))
}

// resolvePassword falls back to GALLERY_PASSWORD so it stays out of shell history
func resolvePassword(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := strings.TrimSpace(os.Getenv("GALLERY_PASSWORD")); env != "" {
		return env, nil
	}
	return "", fmt.Errorf("--password or GALLERY_PASSWORD is required")
}

// commandContext returns cmd's context, or Background when run outside Execute
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, statusCmd)

	loginCmd.Flags().StringVar(&loginToken, "token", "", "Bearer token to store")
	loginCmd.Flags().StringVar(&loginUser, "user", "", "User name to record with --token")
	loginCmd.Flags().StringVar(&loginServer, "server", "", "Server base URL for the login endpoint")
	loginCmd.Flags().StringVar(&loginIdentifier, "identifier", "", "Email address or username")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password (default $GALLERY_PASSWORD)")

	registerCmd.Flags().StringVar(&loginServer, "server", "", "Server base URL for the register endpoint")
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "Email address")
	registerCmd.Flags().StringVar(&registerUsername, "username", "", "Username")
	registerCmd.Flags().StringVar(&loginPassword, "password", "", "Password (default $GALLERY_PASSWORD)")
}
