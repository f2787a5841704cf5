package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/benedict-erwin/license-console/internal/session"
	"github.com/benedict-erwin/license-console/pkg/jwtclaims"
	"github.com/benedict-erwin/license-console/pkg/utils"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the license server",
	Long:  `Exchange username and password for a token and keep it in the local profile`,
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored token",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the claims of the stored token",
	RunE:  runWhoami,
}

// Command flags
var (
	loginUsername string
	loginPassword string
)

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "username (prompted when empty)")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "password (prompted without echo when empty)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, err := newCLI(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	in := bufio.NewReader(cmd.InOrStdin())
	username := strings.TrimSpace(loginUsername)
	if username == "" {
		if username, err = prompt(cmd.OutOrStdout(), in, "Username: "); err != nil {
			return err
		}
	}
	password := loginPassword
	if password == "" {
		if password, err = promptPassword(cmd, in); err != nil {
			return err
		}
	}

	if err := c.session.Login(ctx, username, password); err != nil {
		return errors.New(session.DisplayMessage(err))
	}

	out := cmd.OutOrStdout()
	snap := c.session.Snapshot()
	if sub, ok := snap.Claims.Subject(); ok {
		fmt.Fprintf(out, "✅ Logged in as %s\n", sub)
	} else {
		fmt.Fprintf(out, "✅ Logged in as %s\n", username)
	}
	if exp, ok := snap.Claims.ExpiresAt(); ok {
		fmt.Fprintf(out, "Token expires: %s\n", utils.FormatTime(exp))
	}
	fmt.Fprintf(out, "Profile:       %s\n", c.store.Path())
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	c, err := newCLI(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	c.session.Logout(cmd.Context())
	fmt.Fprintln(cmd.OutOrStdout(), "✅ Logged out.")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	c, err := newCLI(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if err := c.requireToken(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	snap := c.session.Snapshot()
	if snap.Claims == nil {
		fmt.Fprintln(out, "Logged in, but the token carries no readable claims.")
		return nil
	}

	keys := make([]string, 0, len(snap.Claims))
	for k := range snap.Claims {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := tablewriter.NewWriter(out)
	table.Header([]string{"Claim", "Value"})
	for _, k := range keys {
		table.Append([]string{k, claimDisplay(snap.Claims, k)})
	}
	table.Render()

	if snap.Claims.Expired(utils.Now()) {
		fmt.Fprintln(out, "\n⚠️  The token has expired; the server will ask you to log in again.")
	}
	return nil
}

// claimDisplay renders time claims as dates, everything else as JSON-ish text
func claimDisplay(claims jwtclaims.Claims, key string) string {
	switch key {
	case jwtclaims.ClaimIssuedAt:
		if t, ok := claims.IssuedAt(); ok {
			return utils.FormatTime(t)
		}
	case jwtclaims.ClaimExpiresAt:
		if t, ok := claims.ExpiresAt(); ok {
			return utils.FormatTime(t)
		}
	}
	v, _ := claims.Get(key)
	return utils.Truncate(v.Display(), 80)
}

func prompt(out io.Writer, in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads without echo on a terminal and falls back to a plain line otherwise
func promptPassword(cmd *cobra.Command, in *bufio.Reader) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.OutOrStdout(), "Password: ")
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}
	return prompt(cmd.OutOrStdout(), in, "Password: ")
}
