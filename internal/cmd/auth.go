package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/salmonumbrella/csvpeek/internal/output"
	"github.com/salmonumbrella/csvpeek/internal/secrets"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage tokens for remote CSV sources",
	Long: `Manage bearer tokens used when a location is an http(s) URL.

Tokens are stored per host in your system keychain (macOS Keychain,
Windows Credential Manager, or an encrypted file on Linux). CSVPEEK_TOKEN,
when set, is used for every host instead.

Examples:
  csvpeek auth login --host data.example.com --token TOKEN
  csvpeek auth login --host data.example.com   # prompts for the token
  csvpeek auth status
  csvpeek auth logout --host data.example.com`,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a token for a host",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the token for a host",
	RunE:  runLogout,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List hosts with a stored token",
	RunE:  runStatus,
}

var (
	authHost   string
	loginToken string
)

// tokenStatus is how a stored token is shown; the value is always masked.
type tokenStatus struct {
	Host      string    `json:"host" yaml:"host"`
	Token     string    `json:"token" yaml:"token"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

func init() {
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)

	rootCmd.AddCommand(authCmd)

	loginCmd.Flags().StringVar(&authHost, "host", "", "Host name or URL the token is for")
	loginCmd.Flags().StringVar(&loginToken, "token", "", "Bearer token (prompted for when omitted)")
	logoutCmd.Flags().StringVar(&authHost, "host", "", "Host name or URL to forget")
}

// normalizeHost accepts a bare host or a URL and returns the lower-cased host
// name without port.
func normalizeHost(raw string) (string, error) {
	host := strings.TrimSpace(raw)
	if host == "" {
		return "", fmt.Errorf("--host is required")
	}
	if strings.Contains(host, "://") {
		u, err := url.Parse(host)
		if err != nil {
			return "", fmt.Errorf("invalid host %q: %w", raw, err)
		}
		host = u.Hostname()
	} else if h, _, found := strings.Cut(host, ":"); found {
		host = h
	}
	if host == "" {
		return "", fmt.Errorf("invalid host %q", raw)
	}
	return strings.ToLower(host), nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	host, err := normalizeHost(authHost)
	if err != nil {
		return err
	}

	token := strings.TrimSpace(loginToken)
	if token == "" {
		if output.IsStructured(GetOutputFormat()) && !stdinPiped(stdinFromContext(ctx)) {
			return fmt.Errorf("--token is required with structured output")
		}
		token, err = promptSecret(ctx, fmt.Sprintf("Token for %s: ", host))
		if err != nil {
			return fmt.Errorf("read token: %w", err)
		}
	}
	if token == "" {
		return fmt.Errorf("token is required")
	}

	store, err := openSecretsStore()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}
	if err := store.SetToken(host, secrets.Token{Value: token}); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	logger.Debug("token stored", "host", host)

	if structuredOutputRequested() {
		return printStructured(ctx, map[string]interface{}{
			"status": "logged_in",
			"host":   host,
			"token":  maskToken(token),
		})
	}
	fmt.Fprintf(stdoutFromContext(ctx), "Stored token for %s.\n", host)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	host, err := normalizeHost(authHost)
	if err != nil {
		return err
	}

	store, err := openSecretsStore()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	removed := true
	if err := store.DeleteToken(host); err != nil {
		if !errors.Is(err, secrets.ErrNotFound) {
			return fmt.Errorf("failed to remove token: %w", err)
		}
		removed = false
	}

	if structuredOutputRequested() {
		return printStructured(ctx, map[string]interface{}{
			"status":  "logged_out",
			"host":    host,
			"removed": removed,
		})
	}

	out := stdoutFromContext(ctx)
	if !removed {
		fmt.Fprintf(out, "No token stored for %s.\n", host)
		return nil
	}
	fmt.Fprintf(out, "Removed token for %s.\n", host)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openSecretsStore()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}
	tokens, err := store.ListTokens()
	if err != nil {
		return fmt.Errorf("failed to list tokens: %w", err)
	}

	statuses := make([]tokenStatus, 0, len(tokens))
	for _, tok := range tokens {
		statuses = append(statuses, tokenStatus{
			Host:      tok.Host,
			Token:     maskToken(tok.Value),
			CreatedAt: tok.CreatedAt,
		})
	}
	envToken := strings.TrimSpace(envGet("CSVPEEK_TOKEN")) != ""

	if structuredOutputRequested() {
		return printStructured(ctx, map[string]interface{}{
			"env_token": envToken,
			"tokens":    statuses,
		})
	}

	out := stdoutFromContext(ctx)
	if envToken {
		fmt.Fprintln(out, "CSVPEEK_TOKEN is set and overrides stored tokens.")
	}
	if len(statuses) == 0 {
		fmt.Fprintln(out, "No stored tokens.")
		fmt.Fprintln(out, "\nRun 'csvpeek auth login --host HOST' to add one.")
		return nil
	}
	table := output.Table{Headers: []string{"HOST", "TOKEN", "CREATED"}}
	for _, s := range statuses {
		table.Rows = append(table.Rows, []string{s.Host, s.Token, s.CreatedAt.Local().Format(time.DateTime)})
	}
	return printStructured(ctx, table)
}

// promptSecret prompts for a secret input (no echo)
func promptSecret(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(stderrFromContext(ctx), prompt)

	in := stdinFromContext(ctx)
	if file, ok := in.(*os.File); ok {
		if term.IsTerminal(int(file.Fd())) {
			password, err := term.ReadPassword(int(file.Fd()))
			fmt.Fprintln(stderrFromContext(ctx))
			if err != nil {
				return "", err
			}
			return strings.TrimSpace(string(password)), nil
		}
	}

	// Fall back to regular input for non-terminal (e.g., piped input)
	reader := bufio.NewReader(in)
	input, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && input != "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// maskToken masks a token for display, showing only first and last 4 characters
func maskToken(token string) string {
	if len(token) <= 12 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
