package cmd

import (
	"os"

	"mailassist_server/internal/bootstrap"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var envFile string

// rootCmd is the base command of the mail assistant server.
var rootCmd = &cobra.Command{
	Use:   "mailassist",
	Short: "HTTP API for email summaries, smart replies, search and reply correction",
	Long: `mailassist serves JSON endpoints that summarize email text, suggest
replies with template fallbacks, search a list of emails by keyword and
correct the grammar of drafted replies.

Models are reached through an OpenAI-compatible API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadEnvFile(envFile, cmd.Flags().Changed("env-file"))
	},
}

// SetVersion sets the version reported by the CLI and the health endpoints.
func SetVersion(v string) {
	bootstrap.Version = v
	rootCmd.Version = v
}

// Execute runs the CLI. With no subcommand it serves.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mailassist version %s\n" .Version}}`)

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadEnvFile loads variables from path without overriding the environment.
// A missing default file is fine; a missing explicit one is an error.
func loadEnvFile(path string, explicit bool) error {
	if _, err := os.Stat(path); err != nil {
		if !explicit && os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "file with environment variables to load")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}
