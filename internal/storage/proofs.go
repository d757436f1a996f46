package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var (
	ErrTooLarge    = errors.New("proof image exceeds the size limit")
	ErrBadMIME     = errors.New("proof image type not allowed")
	ErrForeignItem = errors.New("object key belongs to a different item")
)

// extensions is the MIME allow-list; anything absent here is rejected.
var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

const keyPrefix = "fulfillments"

type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// ProofStore keeps fulfillment proof images in a public-read bucket. Keys
// are fulfillments/<item_id>/<file_id>.<ext>; the item id embedded in the
// key is the ownership anchor for deletes.
type ProofStore struct {
	client        S3Client
	bucket        string
	maxBytes      int64
	publicBaseURL string
}

func NewProofStore(client S3Client, bucket string, maxBytes int64, publicBaseURL string) *ProofStore {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return &ProofStore{
		client:        client,
		bucket:        bucket,
		maxBytes:      maxBytes,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// NewS3Client builds the SDK client from ambient credentials. endpoint
// overrides the AWS default for S3-compatible providers.
func NewS3Client(ctx context.Context, region, endpoint string) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// StoredProof describes an uploaded object.
type StoredProof struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Upload validates and stores a proof image under the item's key prefix.
func (p *ProofStore) Upload(ctx context.Context, itemID uuid.UUID, contentType string, data []byte) (*StoredProof, error) {
	if int64(len(data)) > p.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(data), p.maxBytes)
	}
	ext, ok := extensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBadMIME, contentType)
	}

	key := BuildKey(itemID, uuid.New(), ext)
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("put proof %q: %w", key, err)
	}

	return &StoredProof{Key: key, URL: p.PublicURL(key)}, nil
}

// Delete removes a stored proof. The key must belong to itemID: deletes are
// authorized against the item owner, so a key naming someone else's item is
// refused before it reaches the bucket.
func (p *ProofStore) Delete(ctx context.Context, key string, itemID uuid.UUID) error {
	owner, err := ParseItemID(key)
	if err != nil {
		return err
	}
	if owner != itemID {
		return ErrForeignItem
	}

	_, err = p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete proof %q: %w", key, err)
	}
	return nil
}

func (p *ProofStore) PublicURL(key string) string {
	if p.publicBaseURL != "" {
		return p.publicBaseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", p.bucket, key)
}

// BuildKey lays out the object key for one proof file.
func BuildKey(itemID, fileID uuid.UUID, ext string) string {
	return fmt.Sprintf("%s/%s/%s.%s", keyPrefix, itemID, fileID, ext)
}

// ParseItemID extracts the owning item id from an object key.
func ParseItemID(key string) (uuid.UUID, error) {
	parts := strings.Split(key, "/")
	if len(parts) != 3 || parts[0] != keyPrefix {
		return uuid.Nil, fmt.Errorf("malformed proof key %q", key)
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return uuid.Nil, fmt.Errorf("malformed proof key %q: %w", key, err)
	}
	return id, nil
}
