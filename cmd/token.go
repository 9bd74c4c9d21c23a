package cmd

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"slot-booking/pkg/utils"

	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "webhook-token",
		Short: "Generate a payment webhook token and its WEBHOOK_TOKEN_HASH value",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := make([]byte, 24)
			if _, err := rand.Read(raw); err != nil {
				return err
			}
			token := base64.RawURLEncoding.EncodeToString(raw)

			hash, err := utils.HashToken(token)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "token (give to the payment provider): %s\n", token)
			fmt.Fprintf(os.Stdout, "export WEBHOOK_TOKEN_HASH='%s'\n", hash)
			return nil
		},
	}
}
