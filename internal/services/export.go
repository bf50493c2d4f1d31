package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	appconfig "vibe-check-backend/internal/config"
	"vibe-check-backend/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const exportURLExpiry = 15 * time.Minute

// ObjectPutter is the subset of the S3 client used for exports
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// GetPresigner is the subset of the S3 presign client used for exports
type GetPresigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// ExportService writes a relationship's full vibe log to S3
type ExportService struct {
	vibeRepo  VibeStore
	relRepo   RelationshipStore
	objects   ObjectPutter
	presigner GetPresigner
	bucket    string
	clock     Clock
}

// NewExportService creates an export service backed by S3
func NewExportService(ctx context.Context, vibeRepo VibeStore, relRepo RelationshipStore, cfg appconfig.AWSConfig, clock Clock) (*ExportService, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewExportServiceWithClient(vibeRepo, relRepo, client, s3.NewPresignClient(client), cfg.S3Bucket, clock), nil
}

// NewExportServiceWithClient creates an export service over the given S3 clients
func NewExportServiceWithClient(vibeRepo VibeStore, relRepo RelationshipStore, objects ObjectPutter, presigner GetPresigner, bucket string, clock Clock) *ExportService {
	if clock == nil {
		clock = SystemClock
	}
	return &ExportService{
		vibeRepo:  vibeRepo,
		relRepo:   relRepo,
		objects:   objects,
		presigner: presigner,
		bucket:    bucket,
		clock:     clock,
	}
}

// ExportDocument is the JSON written to S3
type ExportDocument struct {
	Relationship *models.Relationship `json:"relationship"`
	ExportedAt   time.Time            `json:"exported_at"`
	Vibes        []*models.Vibe       `json:"vibes"`
}

// ExportResponse points at the uploaded export
type ExportResponse struct {
	Key         string `json:"key"`
	DownloadURL string `json:"download_url"`
	ExpiresIn   int    `json:"expires_in"`
}

// Export uploads every vibe of userID's relationship and returns a
// short-lived download link.
func (s *ExportService) Export(ctx context.Context, userID string) (*ExportResponse, error) {
	rel, err := s.relRepo.GetByUserID(ctx, userID)
	if errors.Is(err, models.ErrRelationshipNotFound) {
		return nil, models.ErrNoRelationship
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get relationship by user id: %w", err)
	}

	vibes, err := s.vibeRepo.ListByRelationship(ctx, rel.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vibes: %w", err)
	}
	if vibes == nil {
		vibes = []*models.Vibe{}
	}

	now := s.clock().UTC()
	data, err := json.Marshal(ExportDocument{
		Relationship: rel,
		ExportedAt:   now,
		Vibes:        vibes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export: %w", err)
	}

	key := fmt.Sprintf("exports/%s/%s.json", rel.ID, now.Format("20060102T150405Z"))

	_, err = s.objects.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload export: %w", err)
	}

	request, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = exportURLExpiry
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}

	return &ExportResponse{
		Key:         key,
		DownloadURL: request.URL,
		ExpiresIn:   int(exportURLExpiry.Seconds()),
	}, nil
}
