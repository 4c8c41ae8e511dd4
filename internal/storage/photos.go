// Package storage uploads consignment item photos to S3. Deployments
// without a bucket configured run with uploads disabled and items keep
// a blank photo URL.
package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// PhotoStore uploads item photos and returns presigned view URLs.
// A nil client means uploads are disabled.
type PhotoStore struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

// NewPhotoStore builds a PhotoStore for the given bucket using the
// default AWS credential chain. An empty bucket or a failed config load
// returns a disabled store.
func NewPhotoStore(bucket string) *PhotoStore {
	if bucket == "" {
		return &PhotoStore{}
	}
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Printf("ERROR: load aws config, photo uploads disabled: %v", err)
		return &PhotoStore{}
	}
	client := s3.NewFromConfig(cfg)
	return &PhotoStore{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
	}
}

// Enabled reports whether photo uploads are configured.
func (p *PhotoStore) Enabled() bool {
	return p != nil && p.client != nil
}

// Upload stores a photo under a generated key and returns a presigned
// URL valid for 24 hours. contentType should come from the multipart
// part header.
func (p *PhotoStore) Upload(ctx context.Context, itemID uuid.UUID, contentType string, body io.Reader) (string, error) {
	if !p.Enabled() {
		return "", fmt.Errorf("photo uploads not configured")
	}
	objKey := fmt.Sprintf("consignment/%s/%s", itemID, uuid.New())
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(objKey),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	r, err := p.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(objKey),
	}, func(po *s3.PresignOptions) {
		po.Expires = 24 * time.Hour
	})
	if err != nil {
		return "", fmt.Errorf("presign object: %w", err)
	}
	return r.URL, nil
}
