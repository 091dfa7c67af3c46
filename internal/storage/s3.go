// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage delivers exported archives through S3-compatible object
// storage. Archives are uploaded to a private bucket and handed out as
// short-lived pre-signed links. It wraps the AWS SDK v2 and is configured
// for path-style access (required by CEPH/Hetzner and MinIO).
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"caroumate/internal/slug"
)

// LinkExpiry is how long a delivered archive link stays valid.
const LinkExpiry = 15 * time.Minute

// Client wraps an S3 client for archive delivery.
type Client struct {
	s3        *s3.Client
	presigner *s3.PresignClient
	bucket    string
	now       func() time.Time
}

// New creates an S3 storage client configured with path-style addressing.
// Returns (nil, nil) if endpoint or credentials are empty, allowing the
// app to start without storage.
func New(endpoint, region, accessKey, secretKey, bucket string) (*Client, error) {
	if endpoint == "" || accessKey == "" || secretKey == "" {
		return nil, nil
	}
	if bucket == "" {
		return nil, fmt.Errorf("storage: bucket is required")
	}
	if region == "" {
		region = "us-east-1"
	}

	s3Client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(strings.TrimRight(endpoint, "/")),
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})

	return &Client{
		s3:        s3Client,
		presigner: s3.NewPresignClient(s3Client),
		bucket:    bucket,
		now:       time.Now,
	}, nil
}

// Upload stores an object in the archive bucket.
func (c *Client) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(c.bucket),
		Key:                aws.String(key),
		Body:               body,
		ContentLength:      aws.Int64(size),
		ContentType:        aws.String(contentType),
		ContentDisposition: aws.String(fmt.Sprintf(`attachment; filename="%s"`, key[strings.LastIndexByte(key, '/')+1:])),
	})
	if err != nil {
		return fmt.Errorf("s3 upload %s/%s: %w", c.bucket, key, err)
	}
	return nil
}

// Delete removes an object from the archive bucket.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", c.bucket, key, err)
	}
	return nil
}

// PresignedURL generates a pre-signed GET URL for an archive.
// The URL is valid for the specified duration (at most 7 days with SigV4).
func (c *Client) PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	req, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("s3 presign %s/%s: %w", c.bucket, key, err)
	}
	return req.URL, nil
}

// ArchiveKey builds the object key for a user's export. The timestamp
// keeps repeated exports of the same carousel apart.
func (c *Client) ArchiveKey(userID, name string) string {
	owner := slug.Generate(userID)
	if owner == "" {
		owner = "anonymous"
	}
	return fmt.Sprintf("exports/%s/%s-%s", owner, c.now().UTC().Format("20060102T150405"), name)
}

// DeliverArchive uploads a zip archive and returns a link valid for
// LinkExpiry.
func (c *Client) DeliverArchive(ctx context.Context, userID, name string, data []byte) (string, error) {
	key := c.ArchiveKey(userID, name)
	if err := c.Upload(ctx, key, "application/zip", bytes.NewReader(data), int64(len(data))); err != nil {
		return "", err
	}
	url, err := c.PresignedURL(ctx, key, LinkExpiry)
	if err != nil {
		if derr := c.Delete(context.WithoutCancel(ctx), key); derr != nil {
			slog.Warn("orphaned archive", "key", key, "error", derr)
		}
		return "", err
	}
	return url, nil
}
