package cli

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/spf13/cobra"

	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/crypto"
)

func newKMSEncryptor(ctx context.Context, keyID string) (crypto.Encryptor, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return crypto.NewKMSService(kms.NewFromConfig(cfg), keyID), nil
}

func newSecretCmd(opts *rootOptions) *cobra.Command {
	var keyID string

	secretCmd := &cobra.Command{
		Use:   "secret",
		Short: "Seal and open gateway secrets stored with SECRETS_ENCRYPTED=true",
		Long: `Seal a value with the gateway's KMS key before writing it to the
parameter store, or open a sealed value to check it.

Example:
  pastq secret seal "$DRIVE_API_KEY" --key-id alias/pastq-secrets`,
	}
	secretCmd.PersistentFlags().StringVar(&keyID, "key-id", envOr("KMS_KEY_ID", "alias/pastq-secrets"), "KMS key ID or alias")

	run := func(op func(crypto.Encryptor, context.Context, string) (string, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			enc, err := opts.newEncryptor(cmd.Context(), keyID)
			if err != nil {
				return err
			}
			out, err := op(enc, cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		}
	}

	secretCmd.AddCommand(&cobra.Command{
		Use:   "seal <value>",
		Short: "Encrypt a value",
		Args:  cobra.ExactArgs(1),
		RunE:  run(crypto.Encryptor.Encrypt),
	})
	secretCmd.AddCommand(&cobra.Command{
		Use:   "open <ciphertext>",
		Short: "Decrypt a sealed value",
		Args:  cobra.ExactArgs(1),
		RunE:  run(crypto.Encryptor.Decrypt),
	})

	return secretCmd
}
