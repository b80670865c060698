//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 The fms-sdg authors
//
// This file is part of fms-sdg.
//
// fms-sdg is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// fms-sdg is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with fms-sdg. If not, see https://www.gnu.org/licenses/.

package readers

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	fmssdg "github.com/sivasankalpp/fms-sdg"
)

// S3ReaderError provides structured error information for S3 source
// operations.
type S3ReaderError struct {
	Op  string
	Err error
}

func (e *S3ReaderError) Error() string {
	return fmt.Sprintf("s3 reader %s: %v", e.Op, e.Err)
}

func (e *S3ReaderError) Unwrap() error {
	return e.Err
}

// S3ReaderStats holds statistics about the S3 source's progress.
type S3ReaderStats struct {
	ObjectsListed int64
	ObjectsRead   int64
	RowsRead      int64
	ReadDuration  time.Duration
	LastReadTime  time.Time
	CurrentObject string
}

// S3ReaderOptions configures the S3 source.
type S3ReaderOptions struct {
	Bucket         string          // Bucket to read from (required)
	Prefix         string          // Key prefix filter
	Suffix         string          // Key suffix filter (e.g., ".jsonl")
	Region         string          // AWS region
	Profile        string          // Shared config profile
	Credentials    aws.Credentials // Explicit credentials
	EndpointURL    string          // Custom endpoint (e.g., MinIO)
	ForcePathStyle bool            // Path-style addressing
	MaxKeys        int32           // Listing page size
	TaskName       string          // When set, stamped into every row's task_name field
}

// S3ReaderOption is a functional option for S3ReaderOptions.
type S3ReaderOption func(*S3ReaderOptions)

func WithS3Bucket(bucket string) S3ReaderOption {
	return func(opts *S3ReaderOptions) { opts.Bucket = bucket }
}

func WithS3Prefix(prefix string) S3ReaderOption {
	return func(opts *S3ReaderOptions) { opts.Prefix = prefix }
}

func WithS3Suffix(suffix string) S3ReaderOption {
	return func(opts *S3ReaderOptions) { opts.Suffix = suffix }
}

func WithS3Region(region string) S3ReaderOption {
	return func(opts *S3ReaderOptions) { opts.Region = region }
}

func WithS3Profile(profile string) S3ReaderOption {
	return func(opts *S3ReaderOptions) { opts.Profile = profile }
}

func WithS3Credentials(creds aws.Credentials) S3ReaderOption {
	return func(opts *S3ReaderOptions) { opts.Credentials = creds }
}

func WithS3Endpoint(endpoint string) S3ReaderOption {
	return func(opts *S3ReaderOptions) { opts.EndpointURL = endpoint }
}

func WithS3PathStyle(pathStyle bool) S3ReaderOption {
	return func(opts *S3ReaderOptions) { opts.ForcePathStyle = pathStyle }
}

func WithS3MaxKeys(maxKeys int32) S3ReaderOption {
	return func(opts *S3ReaderOptions) { opts.MaxKeys = maxKeys }
}

// WithS3TaskName stamps the task grouping field into every produced row.
func WithS3TaskName(name string) S3ReaderOption {
	return func(opts *S3ReaderOptions) { opts.TaskName = name }
}

// S3Reader implements fmssdg.RowSource over objects in an S3 bucket. Matching
// objects are listed up front and streamed one after another; each object's
// payload is decoded by a CSV or JSON lines delegate chosen by file extension.
type S3Reader struct {
	client       *s3.Client
	keys         []string
	currentIndex int
	current      fmssdg.RowSource
	stats        S3ReaderStats
	opts         S3ReaderOptions
}

// NewS3Reader creates an S3 source and lists the objects it will stream.
func NewS3Reader(ctx context.Context, options ...S3ReaderOption) (*S3Reader, error) {
	opts := S3ReaderOptions{MaxKeys: 1000}
	for _, option := range options {
		option(&opts)
	}

	if opts.Bucket == "" {
		return nil, &S3ReaderError{Op: "configure", Err: fmt.Errorf("bucket is required")}
	}

	cfg, err := loadAWSConfig(ctx, opts)
	if err != nil {
		return nil, &S3ReaderError{Op: "load_aws_config", Err: err}
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.EndpointURL != "" {
			o.BaseEndpoint = aws.String(opts.EndpointURL)
		}
		o.UsePathStyle = opts.ForcePathStyle
	})

	reader := &S3Reader{
		client: client,
		opts:   opts,
	}

	if err := reader.listObjects(ctx); err != nil {
		return nil, &S3ReaderError{Op: "list_objects", Err: err}
	}

	return reader, nil
}

// Read implements the fmssdg.RowSource interface.
func (s *S3Reader) Read(ctx context.Context) (fmssdg.Row, error) {
	start := time.Now()
	defer func() {
		s.stats.ReadDuration += time.Since(start)
		s.stats.LastReadTime = time.Now()
	}()

	select {
	case <-ctx.Done():
		return nil, &S3ReaderError{Op: "read", Err: ctx.Err()}
	default:
	}

	for {
		if s.current == nil {
			if s.currentIndex >= len(s.keys) {
				return nil, io.EOF
			}
			if err := s.openObject(ctx, s.keys[s.currentIndex]); err != nil {
				return nil, err
			}
		}

		row, err := s.current.Read(ctx)
		if err == io.EOF {
			s.closeCurrent()
			continue
		}
		if err != nil {
			return nil, &S3ReaderError{Op: "read_row", Err: err}
		}

		if s.opts.TaskName != "" {
			if setErr := fmssdg.SetField(row, fmssdg.TaskNameField, s.opts.TaskName); setErr != nil {
				return nil, &S3ReaderError{Op: "read_row", Err: setErr}
			}
		}

		s.stats.RowsRead++
		return row, nil
	}
}

// Close implements the fmssdg.RowSource interface.
func (s *S3Reader) Close() error {
	if s.current != nil {
		err := s.current.Close()
		s.current = nil
		return err
	}
	return nil
}

// Stats returns S3 source progress stats.
func (s *S3Reader) Stats() S3ReaderStats {
	return s.stats
}

// Keys returns the object keys that will be (or have been) streamed.
func (s *S3Reader) Keys() []string {
	return s.keys
}

func loadAWSConfig(ctx context.Context, opts S3ReaderOptions) (aws.Config, error) {
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

func (s *S3Reader) listObjects(ctx context.Context) error {
	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.opts.Bucket),
		MaxKeys: &s.opts.MaxKeys,
	}
	if s.opts.Prefix != "" {
		input.Prefix = aws.String(s.opts.Prefix)
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return err
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if s.opts.Suffix != "" && !strings.HasSuffix(key, s.opts.Suffix) {
				continue
			}
			s.keys = append(s.keys, key)
		}
	}

	s.stats.ObjectsListed = int64(len(s.keys))
	return nil
}

func (s *S3Reader) openObject(ctx context.Context, key string) error {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return &S3ReaderError{Op: "get_object", Err: fmt.Errorf("object %s: %w", key, err)}
	}

	delegate, err := s.delegateFor(result.Body, key)
	if err != nil {
		result.Body.Close()
		return &S3ReaderError{Op: "open_object", Err: fmt.Errorf("object %s: %w", key, err)}
	}

	s.current = delegate
	s.stats.CurrentObject = key
	s.stats.ObjectsRead++
	return nil
}

// delegateFor picks a payload decoder by file extension. Unknown extensions
// are treated as line-delimited JSON.
func (s *S3Reader) delegateFor(body io.ReadCloser, key string) (fmssdg.RowSource, error) {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".csv":
		return NewCSVReader(body, WithCSVHasHeaders(true))
	default:
		return NewJSONReader(body), nil
	}
}

func (s *S3Reader) closeCurrent() {
	if s.current != nil {
		s.current.Close()
		s.current = nil
		s.currentIndex++
	}
}
