package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ekaya-inc/ekaya-export/pkg/models"
)

// authFlags selects integrated or SQL Server authentication.
type authFlags struct {
	user           string
	passwordStdin  bool
	passwordPrompt bool
}

func addAuthFlags(cmd *cobra.Command, f *authFlags) {
	cmd.Flags().StringVarP(&f.user, "user", "U", "", "SQL Server login; omit for Windows (integrated) authentication")
	cmd.Flags().BoolVar(&f.passwordStdin, "password-stdin", false, "Read the password from stdin")
	cmd.Flags().BoolVar(&f.passwordPrompt, "password-prompt", false, "Prompt for the password without echo")
	cmd.MarkFlagsMutuallyExclusive("password-stdin", "password-prompt")
}

// credentials resolves the login. Without a user name the process identity
// is used. The password comes from stdin, a prompt, or MSSQL_PASSWORD.
func (f *authFlags) credentials(a *app) (models.Credentials, error) {
	user := strings.TrimSpace(f.user)
	if user == "" {
		user = strings.TrimSpace(a.cfg.Connection.Username)
	}
	if user == "" {
		return models.Integrated(), nil
	}

	var (
		password string
		err      error
	)
	switch {
	case f.passwordStdin:
		password, err = readLine(a.stdin)
	case f.passwordPrompt:
		password, err = promptPassword(a.stderr)
	default:
		password = a.cfg.Connection.Password
	}
	if err != nil {
		return models.Credentials{}, fmt.Errorf("read password: %w", err)
	}

	creds := models.Explicit(user, password)
	if err := creds.Validate(); err != nil {
		return models.Credentials{}, fmt.Errorf("%w (use --password-stdin, --password-prompt or MSSQL_PASSWORD)", err)
	}
	return creds, nil
}

// readLine reads one line without its terminator. EOF after some text is
// not an error.
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptPassword reads a password from the terminal with echo disabled.
func promptPassword(w io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("--password-prompt needs an interactive terminal")
	}
	fmt.Fprint(w, "Password: ")
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(password), nil
}

func parseEndpoint(s string) models.Endpoint {
	return models.Endpoint(strings.TrimSpace(s))
}
