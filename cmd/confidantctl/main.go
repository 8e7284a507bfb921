package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiFlag     string
	profileFlag string
	rootCmd     = &cobra.Command{
		Use:   "confidantctl",
		Short: "CLI client for the confidant REST API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "confidant service base URL")

	profilesCmd := &cobra.Command{
		Use:   "profiles",
		Short: "Manage relationship profiles",
	}
	profilesCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListProfiles(apiFlag, os.Stdout)
		},
	})
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			opponent, _ := cmd.Flags().GetString("opponent")
			user, _ := cmd.Flags().GetString("user")
			return runCreateProfile(apiFlag, name, opponent, user, os.Stdout)
		},
	}
	createCmd.Flags().StringP("name", "n", "", "Profile name (required)")
	createCmd.Flags().StringP("opponent", "o", "", "Counterpart's display name (required)")
	createCmd.Flags().StringP("user", "u", "", "Your display name")
	_ = createCmd.MarkFlagRequired("name")
	_ = createCmd.MarkFlagRequired("opponent")
	profilesCmd.AddCommand(createCmd)
	rootCmd.AddCommand(profilesCmd)

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run incremental analysis on a profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			if profileFlag == "" {
				return fmt.Errorf("--profile required")
			}
			return runAnalyze(apiFlag, profileFlag, os.Stdout)
		},
	}
	analyzeCmd.Flags().StringVarP(&profileFlag, "profile", "p", "", "Profile ID (required)")
	rootCmd.AddCommand(analyzeCmd)

	assistCmd := &cobra.Command{
		Use:   "assist",
		Short: "Ask the strategist for reply suggestions",
		RunE: func(cmd *cobra.Command, args []string) error {
			message, _ := cmd.Flags().GetString("message")
			thoughts, _ := cmd.Flags().GetString("thoughts")
			if profileFlag == "" {
				return fmt.Errorf("--profile required")
			}
			return runAssist(apiFlag, profileFlag, message, thoughts, os.Stdout)
		},
	}
	assistCmd.Flags().StringVarP(&profileFlag, "profile", "p", "", "Profile ID (required)")
	assistCmd.Flags().StringP("message", "m", "", "The counterpart's latest message (required)")
	assistCmd.Flags().StringP("thoughts", "t", "", "Your honest thoughts about it")
	_ = assistCmd.MarkFlagRequired("message")
	rootCmd.AddCommand(assistCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
