//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of SheetMart.
//
// SheetMart is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SheetMart is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with SheetMart. If not, see https://www.gnu.org/licenses/.

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/aaronlmathis/sheetmart/core"
)

// S3StoreError provides structured error information for S3 store
// operations.
type S3StoreError struct {
	Op  string // Operation that failed (e.g., "get_object", "put_object")
	Err error  // Underlying error
}

func (e *S3StoreError) Error() string {
	return fmt.Sprintf("s3 store %s: %v", e.Op, e.Err)
}

func (e *S3StoreError) Unwrap() error {
	return e.Err
}

// S3StoreStats holds statistics about store operations.
type S3StoreStats struct {
	ObjectsRead    int64
	ObjectsWritten int64
	BytesRead      int64
	BytesWritten   int64
	LastOpTime     time.Time
}

// S3StoreOptions configures the S3 store behavior.
type S3StoreOptions struct {
	Region         string          // AWS region
	Profile        string          // AWS profile to use
	Credentials    aws.Credentials // Explicit credentials
	EndpointURL    string          // Custom S3 endpoint (for S3-compatible services)
	ForcePathStyle bool            // Use path-style addressing
}

// StoreOptionS3 represents a configuration function for S3Store.
type StoreOptionS3 func(*S3StoreOptions)

func WithS3Region(region string) StoreOptionS3 {
	return func(opts *S3StoreOptions) {
		opts.Region = region
	}
}

func WithS3Profile(profile string) StoreOptionS3 {
	return func(opts *S3StoreOptions) {
		opts.Profile = profile
	}
}

func WithS3Credentials(creds aws.Credentials) StoreOptionS3 {
	return func(opts *S3StoreOptions) {
		opts.Credentials = creds
	}
}

func WithS3Endpoint(endpoint string) StoreOptionS3 {
	return func(opts *S3StoreOptions) {
		opts.EndpointURL = endpoint
	}
}

func WithS3PathStyle(pathStyle bool) StoreOptionS3 {
	return func(opts *S3StoreOptions) {
		opts.ForcePathStyle = pathStyle
	}
}

// S3Store implements core.ObjectStore for Amazon S3 and S3-compatible
// services. Put overwrites in place, so the same destination key always
// holds the latest artifact.
type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	stats    S3StoreStats
	opts     S3StoreOptions
}

// NewS3Store creates a new S3 store with the specified options.
func NewS3Store(ctx context.Context, options ...StoreOptionS3) (*S3Store, error) {
	opts := S3StoreOptions{}
	for _, option := range options {
		option(&opts)
	}

	cfg, err := createAWSConfig(ctx, opts)
	if err != nil {
		return nil, &S3StoreError{Op: "create_aws_config", Err: err}
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.EndpointURL != "" {
			o.BaseEndpoint = aws.String(opts.EndpointURL)
		}
		o.UsePathStyle = opts.ForcePathStyle
	})

	return &S3Store{
		client:   client,
		uploader: manager.NewUploader(client),
		opts:     opts,
	}, nil
}

// Get implements core.ObjectStore. A missing object is reported as
// *core.NotFoundError so the orchestrator can treat it as a retryable
// no-op.
func (s *S3Store) Get(ctx context.Context, id core.ObjectID) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(id.Bucket),
		Key:    aws.String(id.Key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		var notFound *types.NotFound
		if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
			return nil, &core.NotFoundError{Object: id, Err: err}
		}
		return nil, &S3StoreError{Op: "get_object", Err: err}
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &S3StoreError{Op: "read_body", Err: err}
	}

	s.stats.ObjectsRead++
	s.stats.BytesRead += int64(len(data))
	s.stats.LastOpTime = time.Now()
	return data, nil
}

// Put implements core.ObjectStore.
func (s *S3Store) Put(ctx context.Context, id core.ObjectID, data []byte) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(id.Bucket),
		Key:    aws.String(id.Key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return &S3StoreError{Op: "put_object", Err: err}
	}

	s.stats.ObjectsWritten++
	s.stats.BytesWritten += int64(len(data))
	s.stats.LastOpTime = time.Now()
	return nil
}

// Stats returns store operation statistics.
func (s *S3Store) Stats() S3StoreStats {
	return s.stats
}

// createAWSConfig creates AWS configuration from options.
func createAWSConfig(ctx context.Context, opts S3StoreOptions) (aws.Config, error) {
	configOpts := []func(*config.LoadOptions) error{}

	if opts.Region != "" {
		configOpts = append(configOpts, config.WithRegion(opts.Region))
	}

	if opts.Profile != "" {
		configOpts = append(configOpts, config.WithSharedConfigProfile(opts.Profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return aws.Config{}, err
	}

	if opts.Credentials.AccessKeyID != "" {
		cfg.Credentials = aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(
				opts.Credentials.AccessKeyID,
				opts.Credentials.SecretAccessKey,
				opts.Credentials.SessionToken,
			),
		)
	}

	return cfg, nil
}
