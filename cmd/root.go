package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benedict-erwin/license-console/config"
	"github.com/benedict-erwin/license-console/internal/licenses"
	"github.com/benedict-erwin/license-console/internal/session"
	"github.com/benedict-erwin/license-console/pkg/apiclient"
	"github.com/benedict-erwin/license-console/pkg/logger"
	"github.com/benedict-erwin/license-console/pkg/tokenstore"
	"github.com/benedict-erwin/license-console/pkg/utils"
)

var rootCmd = &cobra.Command{
	Use:           "licensectl",
	Short:         "License server administration",
	Long:          `Sign in to a license server and manage its licenses from the terminal or the web console`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	apiURL string

	// listener is handed over by overseer when the console runs supervised
	listener net.Listener
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %s\n", apiclient.Describe(err))
		logger.Debug().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// ExecuteWithListener runs the root command serving the console on ln
func ExecuteWithListener(ln net.Listener) {
	listener = ln
	Execute()
}

// init initializes all application dependencies and registers commands
func init() {
	// Initialize config
	if err := config.Init(); err != nil {
		panic(err)
	}
	cfg := config.Get()

	// Initialize logger
	logger.Init(logger.Options{
		Timezone:    cfg.App.Timezone,
		Environment: cfg.App.Env,
		Level:       cfg.App.LogLevel,
		Console:     true,
	})

	// Initialize utils
	if err := utils.InitTimezone(cfg.App.Timezone); err != nil {
		logger.Warn().Err(err).Msg("Timezone initialization failed, continuing with UTC")
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "license API base URL (default from config, "+config.DefaultBaseURL+")")

	// Add commands
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(licenseCmd)
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(devCmd)
}

// cli is what every API command works with: the profile file, the client and the session
type cli struct {
	store    *tokenstore.File
	api      *apiclient.Client
	session  *session.Session
	licenses *licenses.Service
}

// newCLI builds the pipeline for one command. A 401 clears the profile and
// prints a hint to sign in again.
func newCLI(ctx context.Context, errOut io.Writer) (*cli, error) {
	cfg := config.Get()

	path, err := cfg.ProfilePath()
	if err != nil {
		return nil, err
	}
	store := tokenstore.NewFile(path)

	base := cfg.API.BaseURL
	if strings.TrimSpace(apiURL) != "" {
		base = apiURL
	}

	api, err := apiclient.New(base, store,
		apiclient.WithTimeout(cfg.API.Timeout),
		apiclient.WithNavigator(apiclient.NavigatorFunc(func(context.Context, string) {
			fmt.Fprintln(errOut, "⚠️  Session expired. Run 'licensectl login' to sign in again.")
		})),
	)
	if err != nil {
		return nil, err
	}

	return &cli{
		store:    store,
		api:      api,
		session:  session.New(ctx, store, api),
		licenses: licenses.NewService(api),
	}, nil
}

// errNotLoggedIn is returned by commands that need a token when the profile has none
var errNotLoggedIn = errors.New("not logged in, run 'licensectl login' first")

// requireToken mirrors the console guard for the CLI
func (c *cli) requireToken() error {
	if !c.session.HasToken() {
		return errNotLoggedIn
	}
	return nil
}
