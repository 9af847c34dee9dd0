package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Skotchmaster/cms_admin/internal/admin/fieldmodal"
	"github.com/Skotchmaster/cms_admin/internal/gqlclient"
	"github.com/Skotchmaster/cms_admin/internal/logging"
)

const (
	defaultEndpoint = "http://localhost:8080/graphql"
	envEndpoint     = "CMS_ENDPOINT"
	envToken        = "CMS_TOKEN"
)

// readPassword is swapped out in tests.
var readPassword = term.ReadPassword

// isTerminal is swapped out in tests.
var isTerminal = term.IsTerminal

type app struct {
	in  *bufio.Reader
	out io.Writer

	endpoint  string
	tokenFile string
	logLevel  string

	// submitDelay is handed to every field dialog.
	submitDelay time.Duration
}

func newApp(in io.Reader, out io.Writer) *app {
	return &app{
		in:          bufio.NewReader(in),
		out:         out,
		submitDelay: fieldmodal.SubmitDelay,
	}
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cmsctl-token"
	}
	return filepath.Join(home, ".cmsctl", "token")
}

func newRootCmd(a *app) *cobra.Command {
	endpoint := os.Getenv(envEndpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	root := &cobra.Command{
		Use:           "cmsctl",
		Short:         "Manage content models of a CMS server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			l := logging.NewWithWriter(cmd.ErrOrStderr(), a.logLevel).With("app", "cmsctl")
			cmd.SetContext(logging.IntoContext(cmd.Context(), l))
		},
	}
	root.SetOut(a.out)

	root.PersistentFlags().StringVar(&a.endpoint, "endpoint", endpoint, "GraphQL endpoint (env "+envEndpoint+")")
	root.PersistentFlags().StringVar(&a.tokenFile, "token-file", defaultTokenFile(), "file holding the session token")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "debug, info, warn or error")

	root.AddCommand(newLoginCmd(a), newModelCmd(a), newFieldCmd(a))
	return root
}

// token prefers CMS_TOKEN over the token file.
func (a *app) token() string {
	if tok := strings.TrimSpace(os.Getenv(envToken)); tok != "" {
		return tok
	}
	raw, err := os.ReadFile(a.tokenFile)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

func (a *app) saveToken(tok string) error {
	if err := os.MkdirAll(filepath.Dir(a.tokenFile), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	return os.WriteFile(a.tokenFile, []byte(tok+"\n"), 0o600)
}

func (a *app) client() *gqlclient.Client {
	return gqlclient.NewClient(a.endpoint, gqlclient.WithToken(a.token()))
}

func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// password reads without echo from a terminal and falls back to a plain
// line when stdin is piped.
func (a *app) password() (string, error) {
	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		return a.prompt("Password: ")
	}
	fmt.Fprint(a.out, "Password: ")
	pw, err := readPassword(fd)
	fmt.Fprintln(a.out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
