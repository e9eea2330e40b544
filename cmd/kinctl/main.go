// Command kinctl manages the identity store and runs enrollment and
// matching against still images, using the same services as the API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is the CLI version.
const Version = "0.1.0"

var (
	envFile string
	app     *cliApp
)

var rootCmd = &cobra.Command{
	Use:     "kinctl",
	Short:   "Manage enrolled identities and match faces from the command line",
	Version: Version,
	Long: `kinctl talks to the same PostgreSQL store and face provider as the
Kinface API. It reads DATABASE_URL, PROVIDER_TYPE, DETECTOR_URL and the
other service settings from the environment or from a .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env file is optional unless named explicitly
		if err := godotenv.Load(envFile); err != nil && cmd.Flags().Changed("env-file") {
			return fmt.Errorf("load %s: %w", envFile, err)
		}

		a, err := newCLIApp(cmd.Context())
		if err != nil {
			return err
		}
		app = a
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app != nil {
			app.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load before reading configuration")
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
