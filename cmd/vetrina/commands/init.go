package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmarchetti/vetrina/internal/api"
	"github.com/dmarchetti/vetrina/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample Vetrina configuration file.

By default, the configuration file is created at
$XDG_CONFIG_HOME/vetrina/config.yaml. Use --config to specify a custom path.

Examples:
  # Initialize with default location
  vetrina init

  # Initialize with custom path
  vetrina init --config /etc/vetrina/config.yaml

  # Force overwrite existing config
  vetrina init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	var configPath string
	var err error

	if configFile != "" {
		err = config.InitConfigToPath(configFile, initForce)
		configPath = configFile
	} else {
		configPath, err = config.InitConfig(initForce)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file (database, storage bucket)")
	fmt.Println("  2. Start the server with: vetrina start")
	fmt.Println("\nSecurity note:")
	fmt.Println("  A random JWT secret has been generated for development use.")
	fmt.Println("  For production, set the secret via an environment variable:")
	fmt.Printf("    export %s=$(openssl rand -hex 32)\n", api.EnvAPISecret)

	return nil
}
