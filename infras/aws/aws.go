// Package aws loads the shared SDK configuration used by the Chime and SES clients.
package aws

import (
	"context"
	"fmt"

	sdk "github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/rs/zerolog/log"

	"teleconsult/config"
)

// New resolves region and credentials. Static keys win over the default provider chain.
func New(cfg *config.Config) sdk.Config {
	awsCfg, err := Load(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS configuration")
	}

	return awsCfg
}

func Load(ctx context.Context, cfg *config.Config) (sdk.Config, error) {
	opts := []func(*awsConfig.LoadOptions) error{}

	if region := cfg.External.AWS.Region; region != "" {
		opts = append(opts, awsConfig.WithRegion(region))
	}

	if cfg.External.AWS.AccessKeyID != "" {
		opts = append(opts, awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.External.AWS.AccessKeyID,
			cfg.External.AWS.SecretAccessKey,
			cfg.External.AWS.SessionToken,
		)))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return sdk.Config{}, fmt.Errorf("failed to load aws config: %w", err)
	}

	log.Info().Str("region", awsCfg.Region).Msg("AWS configuration loaded")

	return awsCfg, nil
}
