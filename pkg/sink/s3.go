package sink

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Environment variables read by S3OptionsFromEnv. The standard AWS_*
// variables still apply when these are unset.
const (
	EnvS3Endpoint  = "POLICYGRAPH_S3_ENDPOINT"
	EnvS3Region    = "POLICYGRAPH_S3_REGION"
	EnvS3AccessKey = "POLICYGRAPH_S3_ACCESS_KEY"
	EnvS3SecretKey = "POLICYGRAPH_S3_SECRET_KEY"
)

// S3Options configures NewS3Client.
type S3Options struct {
	Region string
	// Endpoint points at an S3-compatible service; it switches to
	// path-style addressing.
	Endpoint string
	// AccessKey and SecretKey replace the default credential chain when
	// both are set.
	AccessKey string
	SecretKey string
}

// S3OptionsFromEnv reads S3Options from the environment.
func S3OptionsFromEnv() S3Options {
	return S3Options{
		Region:    os.Getenv(EnvS3Region),
		Endpoint:  os.Getenv(EnvS3Endpoint),
		AccessKey: os.Getenv(EnvS3AccessKey),
		SecretKey: os.Getenv(EnvS3SecretKey),
	}
}

func (o S3Options) loadOptions() []func(*config.LoadOptions) error {
	var opts []func(*config.LoadOptions) error
	if o.Region != "" {
		opts = append(opts, config.WithRegion(o.Region))
	}
	if o.AccessKey != "" && o.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, "")))
	}
	return opts
}

func (o S3Options) clientOptions(so *s3.Options) {
	if o.Endpoint != "" {
		so.BaseEndpoint = aws.String(o.Endpoint)
		so.UsePathStyle = true
	}
}

// NewS3Client loads the AWS configuration and builds a client.
func NewS3Client(ctx context.Context, o S3Options) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, o.loadOptions()...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg, o.clientOptions), nil
}
