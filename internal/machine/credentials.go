package machine

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/smithy-go"
)

// ErrPartialCredentials is returned when only one of access key and secret
// key is given.
var ErrPartialCredentials = errors.New("both an AWS access key and a secret key are required")

// CredentialSource describes where amazonec2 credentials come from. Explicit
// keys take precedence over Profile.
type CredentialSource struct {
	AccessKey    string
	SecretKey    string
	SessionToken string
	Profile      string
}

// Credentials are resolved AWS keys for the amazonec2 driver.
type Credentials struct {
	AccessKey    string
	SecretKey    string
	SessionToken string
	Source       string
}

// ResolveCredentials resolves src to concrete keys. Profiles go through the
// AWS SDK's shared config chain, so SSO and assume-role profiles that
// docker-machine cannot read itself still work.
func ResolveCredentials(ctx context.Context, src CredentialSource) (Credentials, error) {
	var provider aws.CredentialsProvider

	switch {
	case src.AccessKey != "" && src.SecretKey != "":
		provider = credentials.NewStaticCredentialsProvider(src.AccessKey, src.SecretKey, src.SessionToken)
	case src.AccessKey != "" || src.SecretKey != "":
		return Credentials{}, ErrPartialCredentials
	default:
		var opts []func(*awsconfig.LoadOptions) error
		if src.Profile != "" {
			opts = append(opts, awsconfig.WithSharedConfigProfile(src.Profile))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return Credentials{}, fmt.Errorf("failed to load AWS config: %w", err)
		}
		provider = cfg.Credentials
	}

	if provider == nil {
		return Credentials{}, errors.New("no AWS credentials provider configured")
	}
	creds, err := provider.Retrieve(ctx)
	if err != nil {
		return Credentials{}, retrieveError(err)
	}
	if !creds.HasKeys() {
		return Credentials{}, errors.New("resolved AWS credentials carry no keys")
	}

	return Credentials{
		AccessKey:    creds.AccessKeyID,
		SecretKey:    creds.SecretAccessKey,
		SessionToken: creds.SessionToken,
		Source:       creds.Source,
	}, nil
}

// retrieveError names the AWS error code when the failure came from an AWS
// API, such as an expired SSO session.
func retrieveError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("failed to retrieve AWS credentials (%s): %w", apiErr.ErrorCode(), err)
	}
	return fmt.Errorf("failed to retrieve AWS credentials: %w", err)
}
