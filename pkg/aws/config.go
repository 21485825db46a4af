package aws

import (
	"context"

	"attendance.service/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/rs/zerolog/log"
)

// NewAWSConfig loads the SDK config. In local development every client is
// routed to AWS_ENDPOINT (LocalStack) with static test credentials.
func NewAWSConfig(ctx context.Context, appConfig config.Config) (aws.Config, error) {
	opts := []func(*awsConfig.LoadOptions) error{awsConfig.WithRegion(appConfig.AWSRegion)}

	if appConfig.IsLocalDev {
		log.Info().Str("endpoint", appConfig.AWSEndpoint).Msg("Local development mode detected. Routing AWS calls to LocalStack.")
		opts = append(opts, awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "")))
		if appConfig.AWSEndpoint != "" {
			opts = append(opts, awsConfig.WithBaseEndpoint(appConfig.AWSEndpoint))
		}
	} else {
		log.Info().Msg("Production mode detected. Using standard AWS credential chain.")
	}

	return awsConfig.LoadDefaultConfig(ctx, opts...)
}
