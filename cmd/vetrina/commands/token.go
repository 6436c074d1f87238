package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmarchetti/vetrina/internal/api/auth"
)

var (
	tokenSubject string
	tokenRole    string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Generate a JWT for the admin API",
	Long: `Generate a signed JWT using the configured API secret.

The cleanup endpoints require an admin token:

  TOKEN=$(vetrina token)
  curl -X POST -H "Authorization: Bearer $TOKEN" http://localhost:8080/media/cleanup`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "cli", "Token subject")
	tokenCmd.Flags().StringVar(&tokenRole, "role", auth.RoleAdmin, "Token role")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigAndLogger()
	if err != nil {
		return err
	}

	service, err := auth.NewService(auth.Config{
		Secret:        cfg.API.GetJWTSecret(),
		TokenDuration: cfg.API.JWT.TokenDuration,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	token, expiresAt, err := service.GenerateToken(tokenSubject, tokenRole)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	fmt.Println(token)
	fmt.Fprintf(cmd.ErrOrStderr(), "expires: %s\n", expiresAt.Format(time.RFC3339))
	return nil
}
