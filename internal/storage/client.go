package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scriba/internal/common"
	"github.com/ternarybob/scriba/internal/interfaces"
)

// missingKeyCode is the S3 error code for a GET of an absent object
const missingKeyCode = "NoSuchKey"

// Client is the S3 object storage client shared by one worker process
type Client struct {
	client      *minio.Client
	bucket      string
	region      string
	multiTenant bool
	logger      arbor.ILogger
}

var _ interfaces.ObjectStorage = (*Client)(nil)

// NewClient builds the storage client from the s3 configuration section
func NewClient(config *common.Config, logger arbor.ILogger) (*Client, error) {
	client, err := minio.New(config.S3.Endpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(config.S3.Username, config.S3.Password, ""),
		Secure: config.S3.Secure(),
		Region: config.S3.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client for %s: %w", config.S3.URL, err)
	}

	logger.Info().
		Str("endpoint", config.S3.Endpoint()).
		Str("bucket", config.S3.Bucket).
		Bool("secure", config.S3.Secure()).
		Msg("Storage client prepared")

	return &Client{
		client:      client,
		bucket:      config.S3.Bucket,
		region:      config.S3.Region,
		multiTenant: config.Experimental.MoreAppsEnabled,
		logger:      logger,
	}, nil
}

// EnsureBucket creates the configured bucket when it does not exist yet
func (c *Client) EnsureBucket(ctx context.Context) error {
	return common.Retry(c.logger, "s3 ensure bucket", common.QueryRetryBase, common.QueryRetryTries, func() error {
		exists, err := c.client.BucketExists(ctx, c.bucket)
		if err != nil {
			return fmt.Errorf("failed to check bucket %s: %w", c.bucket, err)
		}
		if exists {
			return nil
		}
		c.logger.Info().Str("bucket", c.bucket).Msg("Creating storage bucket")
		if err := c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{Region: c.region}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", c.bucket, err)
		}
		return nil
	})
}

// StoreDocument uploads rendered bytes under documents/<fileName>
func (c *Client) StoreDocument(ctx context.Context, appUUID, fileName, contentType string, data []byte) error {
	key := DocumentKey(c.multiTenant, appUUID, fileName)
	return common.Retry(c.logger, "s3 store "+key, common.QueryRetryBase, common.QueryRetryTries, func() error {
		_, err := c.client.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)),
			minio.PutObjectOptions{ContentType: contentType})
		if err != nil {
			return fmt.Errorf("failed to store object %s: %w", key, err)
		}
		c.logger.Debug().Str("key", key).Int("size", len(data)).Msg("Object stored")
		return nil
	})
}

// DownloadFile fetches an object into localPath. A missing key is reported
// as (false, nil) and never retried; other failures retry, then propagate.
func (c *Client) DownloadFile(ctx context.Context, key, localPath string) (bool, error) {
	found := true
	err := common.Retry(c.logger, "s3 download "+key, common.QueryRetryBase, common.QueryRetryTries, func() error {
		err := c.client.FGetObject(ctx, c.bucket, key, localPath, minio.GetObjectOptions{})
		if err == nil {
			found = true
			return nil
		}
		if minio.ToErrorResponse(err).Code == missingKeyCode {
			found = false
			return nil
		}
		return fmt.Errorf("failed to download object %s: %w", key, err)
	})
	if err != nil {
		return false, err
	}
	return found, nil
}
