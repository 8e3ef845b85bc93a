package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keepmind9/villabot/bot"
	"github.com/keepmind9/villabot/internal/config"
)

var (
	validateConfigFile string
	validateJSON       bool
)

// ValidationResult represents the validation result
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Config string   `json:"config"`
	Bots   int      `json:"bots"`
	Rules  int      `json:"rules"`
	Errors []string `json:"errors,omitempty"`
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long:  "Load and validate the configuration, including public key material, without starting the server",
	Run: func(cmd *cobra.Command, args []string) {
		result := ValidationResult{Config: validateConfigFile}

		cfg, err := config.LoadConfig(validateConfigFile)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
		} else {
			result.Valid = true
			result.Bots = len(cfg.Bots)
			for _, botCfg := range cfg.Bots {
				result.Rules += len(botCfg.Rules)
				pem, err := botCfg.PubKeyPEM()
				if err != nil {
					result.Valid = false
					result.Errors = append(result.Errors,
						fmt.Sprintf("bot %s: %v", botCfg.BotID, err))
					continue
				}
				if _, err := bot.ParsePublicKey(pem); err != nil {
					result.Valid = false
					result.Errors = append(result.Errors,
						fmt.Sprintf("bot %s: %v", botCfg.BotID, err))
				}
			}
		}

		if validateJSON {
			output, _ := json.MarshalIndent(result, "", "  ")
			fmt.Println(string(output))
		} else if result.Valid {
			fmt.Printf("Configuration %s is valid (%d bots, %d rules)\n",
				result.Config, result.Bots, result.Rules)
		} else {
			fmt.Printf("Configuration %s is invalid:\n", result.Config)
			for _, e := range result.Errors {
				fmt.Printf("  - %s\n", e)
			}
		}

		if !result.Valid {
			os.Exit(1)
		}
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateConfigFile, "config", "c", "config.yaml", "Configuration file path")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Output in JSON format")
}
