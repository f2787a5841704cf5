package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/benedict-erwin/license-console/internal/licenses"
	"github.com/benedict-erwin/license-console/pkg/utils"
)

var licenseCmd = &cobra.Command{
	Use:     "license",
	Aliases: []string{"licenses"},
	Short:   "Manage licenses",
}

var licenseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List licenses, optionally filtered by key, audience or id",
	Args:  cobra.NoArgs,
	RunE:  runLicenseList,
}

var licenseGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show one license",
	Args:  cobra.ExactArgs(1),
	RunE:  runLicenseGet,
}

var licenseCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a license",
	Args:  cobra.NoArgs,
	RunE:  runLicenseCreate,
}

var licenseUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Change fields of a license",
	Long:  `Load the license, apply the given flags and send it back whole`,
	Args:  cobra.ExactArgs(1),
	RunE:  runLicenseUpdate,
}

var licenseDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a license",
	Args:  cobra.ExactArgs(1),
	RunE:  runLicenseDelete,
}

// Command flags
var (
	licenseQuery   string
	licenseJSON    bool
	licenseKey     string
	licenseAud     string
	licenseActive  bool
	licenseExpires string
	forceDelete    bool
)

func init() {
	licenseCmd.AddCommand(licenseListCmd)
	licenseCmd.AddCommand(licenseGetCmd)
	licenseCmd.AddCommand(licenseCreateCmd)
	licenseCmd.AddCommand(licenseUpdateCmd)
	licenseCmd.AddCommand(licenseDeleteCmd)

	licenseCmd.PersistentFlags().BoolVar(&licenseJSON, "json", false, "print JSON instead of a table")
	licenseListCmd.Flags().StringVarP(&licenseQuery, "query", "q", "", "case-insensitive search on key, audience and id")

	for _, c := range []*cobra.Command{licenseCreateCmd, licenseUpdateCmd} {
		c.Flags().StringVarP(&licenseKey, "key", "k", "", "license key")
		c.Flags().StringVarP(&licenseAud, "aud", "a", "", "audience the license is issued to")
		c.Flags().BoolVar(&licenseActive, "active", true, "whether the license is active")
		c.Flags().StringVar(&licenseExpires, "expires", "", "expiry date (YYYY-MM-DD), empty for none")
	}

	licenseDeleteCmd.Flags().BoolVarP(&forceDelete, "force", "f", false, "delete without confirmation")
}

func runLicenseList(cmd *cobra.Command, args []string) error {
	c, err := newCLI(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if err := c.requireToken(); err != nil {
		return err
	}

	all, err := c.licenses.List(cmd.Context())
	if err != nil {
		return err
	}
	items := licenses.Filter(all, licenseQuery)

	out := cmd.OutOrStdout()
	if licenseJSON {
		return printJSON(out, items)
	}
	if len(items) == 0 {
		if licenseQuery != "" {
			fmt.Fprintf(out, "No license matches %q.\n", licenseQuery)
		} else {
			fmt.Fprintln(out, "No licenses.")
		}
		return nil
	}

	table := tablewriter.NewWriter(out)
	table.Header([]string{"ID", "Key", "Audience", "Active", "Expires"})
	for _, l := range items {
		table.Append([]string{l.ID, utils.Truncate(l.Key, 32), l.Audience, yesNo(l.Active), l.ExpiresAt.Display()})
	}
	table.Render()
	fmt.Fprintf(out, "%d of %d licenses\n", len(items), len(all))
	return nil
}

func runLicenseGet(cmd *cobra.Command, args []string) error {
	c, err := newCLI(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if err := c.requireToken(); err != nil {
		return err
	}

	l, err := c.licenses.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if licenseJSON {
		return printJSON(cmd.OutOrStdout(), l)
	}
	printLicense(cmd.OutOrStdout(), l)
	return nil
}

func runLicenseCreate(cmd *cobra.Command, args []string) error {
	c, err := newCLI(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if err := c.requireToken(); err != nil {
		return err
	}

	l := licenses.License{Key: licenseKey, Audience: licenseAud, Active: licenseActive}
	if l.ExpiresAt, err = parseExpiry(licenseExpires); err != nil {
		return err
	}

	created, err := c.licenses.Create(cmd.Context(), l)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ License %s created.\n\n", created.ID)
	printLicense(cmd.OutOrStdout(), created)
	return nil
}

func runLicenseUpdate(cmd *cobra.Command, args []string) error {
	c, err := newCLI(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if err := c.requireToken(); err != nil {
		return err
	}

	l, err := c.licenses.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("key") {
		l.Key = licenseKey
	}
	if flags.Changed("aud") {
		l.Audience = licenseAud
	}
	if flags.Changed("active") {
		l.Active = licenseActive
	}
	if flags.Changed("expires") {
		if l.ExpiresAt, err = parseExpiry(licenseExpires); err != nil {
			return err
		}
	}

	updated, err := c.licenses.Update(cmd.Context(), args[0], *l)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ License %s updated.\n\n", args[0])
	printLicense(cmd.OutOrStdout(), updated)
	return nil
}

func runLicenseDelete(cmd *cobra.Command, args []string) error {
	c, err := newCLI(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if err := c.requireToken(); err != nil {
		return err
	}

	id := args[0]
	out := cmd.OutOrStdout()
	if !forceDelete {
		l, err := c.licenses.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		answer, err := prompt(out, bufio.NewReader(cmd.InOrStdin()),
			fmt.Sprintf("⚠️  Are you sure you want to permanently delete license %s (%s, %s)? [y/N]: ", id, l.Key, l.Audience))
		if err != nil {
			return err
		}
		if a := strings.ToLower(answer); a != "y" && a != "yes" {
			fmt.Fprintln(out, "❌ Deletion cancelled.")
			return nil
		}
	}

	if err := c.licenses.Delete(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(out, "✅ License %s deleted.\n", id)
	return nil
}

func printLicense(out io.Writer, l *licenses.License) {
	fmt.Fprintf(out, "ID:        %s\n", l.ID)
	fmt.Fprintf(out, "Key:       %s\n", l.Key)
	fmt.Fprintf(out, "Audience:  %s\n", l.Audience)
	fmt.Fprintf(out, "Active:    %s\n", yesNo(l.Active))
	fmt.Fprintf(out, "Created:   %s\n", l.CreatedAt.Display())
	fmt.Fprintf(out, "Expires:   %s\n", l.ExpiresAt.Display())
}

func printJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(data))
	return nil
}

func parseExpiry(raw string) (*licenses.Timestamp, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, raw, utils.GetLocation())
	if err != nil {
		return nil, fmt.Errorf("expiry %q is not a date like 2030-12-31", raw)
	}
	return licenses.NewTimestamp(t), nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
