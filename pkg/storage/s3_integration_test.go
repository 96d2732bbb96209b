//go:build integration

package storage

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/localstack"
)

// TestS3Store_Integration uses Testcontainers to spin up LocalStack.
// Requires Docker.
func TestS3Store_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	// 1. Start LocalStack Container
	container, err := localstack.Run(ctx, "localstack/localstack:3.0",
		testcontainers.WithEnv(map[string]string{"SERVICES": "s3"}),
	)
	require.NoError(t, err)
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	}()

	endpoint, err := container.PortEndpoint(ctx, "4566/tcp", "http")
	require.NoError(t, err)

	// 2. Configure AWS SDK to talk to LocalStack
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: "test", SecretAccessKey: "test", SessionToken: "test"}, nil
		})),
	)
	require.NoError(t, err)

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})
	_, err = client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String("pier-logs")})
	require.NoError(t, err)

	store := &S3Store{Client: client, Bucket: "pier-logs"}

	// 3. Exercise the store
	require.NoError(t, store.Put(ctx, "yakhroma/log.csv", []byte("клиент\nА\n")))

	data, err := store.Get(ctx, "yakhroma/log.csv")
	require.NoError(t, err)
	assert.Equal(t, "клиент\nА\n", string(data))

	keys, err := store.List(ctx, "yakhroma/")
	require.NoError(t, err)
	assert.Equal(t, []string{"yakhroma/log.csv"}, keys)

	_, err = store.Get(ctx, "yakhroma/missing.csv")
	assert.ErrorIs(t, err, ErrNotFound)
}
