// Package storage provides long-term archival of generated reviews using S3.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/lumera/insight-engine/internal/domain"
)

// S3Archive writes generated monthly reviews to an S3 bucket, one JSON
// object per (user, month). It satisfies the review package's Archiver
// interface; failures are the caller's to log, archival is best-effort.
type S3Archive struct {
	s3Client *s3.Client
	bucket   string
	prefix   string
}

// NewS3Archive loads the default AWS credential chain and targets the
// given bucket. prefix may be empty.
func NewS3Archive(ctx context.Context, bucket, region, prefix string) (*S3Archive, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &S3Archive{
		s3Client: s3.NewFromConfig(cfg),
		bucket:   bucket,
		prefix:   prefix,
	}, nil
}

func (a *S3Archive) key(userID string, month domain.Month) string {
	key := fmt.Sprintf("reviews/%s/%s.json", userID, month)
	if a.prefix != "" {
		key = a.prefix + "/" + key
	}
	return key
}

// ArchiveReview stores one review record. Overwrites any earlier archive
// for the same (user, month), so regeneration archives the latest copy.
func (a *S3Archive) ArchiveReview(ctx context.Context, userID string, month domain.Month, rec domain.StoredReview) error {
	jsonData, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling review: %w", err)
	}

	_, err = a.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.key(userID, month)),
		Body:        bytes.NewReader(jsonData),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("putting review to S3: %w", err)
	}
	return nil
}

// GetArchivedReview retrieves an archived review, or (zero, false, nil)
// when none exists under the key. Used by support tooling, not the API.
func (a *S3Archive) GetArchivedReview(ctx context.Context, userID string, month domain.Month) (domain.StoredReview, bool, error) {
	result, err := a.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.key(userID, month)),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return domain.StoredReview{}, false, nil
		}
		return domain.StoredReview{}, false, fmt.Errorf("getting review from S3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return domain.StoredReview{}, false, fmt.Errorf("reading S3 object body: %w", err)
	}

	var rec domain.StoredReview
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.StoredReview{}, false, fmt.Errorf("unmarshaling archived review: %w", err)
	}
	return rec, true, nil
}
