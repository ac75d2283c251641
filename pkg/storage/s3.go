package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

const (
	// FolderAgencies is the S3 prefix for agency registration documents.
	FolderAgencies = "agencies"
	// FolderQuotes is the S3 prefix for quote attachments (contracts, payment proofs).
	FolderQuotes = "quotes"
)

// ErrObjectNotFound is returned by Exists callers when the key was never uploaded.
var ErrObjectNotFound = errors.New("object not found")

// AllowedDocumentTypes maps accepted MIME types to their canonical extension.
var AllowedDocumentTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/jpg":       ".jpg",
	"image/png":       ".png",
}

// AllowedDocumentExtensions maps accepted extensions to a MIME type.
var AllowedDocumentExtensions = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// S3Config holds S3 client configuration.
type S3Config struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	DocumentsBucket      string
	PresignExpireMinutes int
}

// S3 provides document storage with pre-signed URLs.
type S3 struct {
	client  *s3.Client
	presign *s3.PresignClient
	cfg     S3Config
	logger  *zap.Logger
}

// NewS3 creates an S3 client using credentials from config or the default AWS chain.
func NewS3(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	accessKey := cfg.AccessKeyID
	secretKey := cfg.SecretAccessKey
	if accessKey == "" || secretKey == "" {
		accessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		secretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey, secretKey, "",
		)))
		logger.Info("S3 client using static credentials", zap.String("region", cfg.Region), zap.String("bucket", cfg.DocumentsBucket))
	} else {
		logger.Warn("S3 client using default credential chain")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	return &S3{
		client:  client,
		presign: s3.NewPresignClient(client),
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// ValidateDocumentType returns true if the content type or extension is an accepted document.
func ValidateDocumentType(contentType, filename string) bool {
	if contentType != "" {
		if _, ok := AllowedDocumentTypes[strings.ToLower(contentType)]; ok {
			return true
		}
	}
	ext := strings.ToLower(path.Ext(filename))
	if ext != "" {
		if _, ok := AllowedDocumentExtensions[ext]; ok {
			return true
		}
	}
	return false
}

// ContentTypeForFilename returns the MIME type for a document filename extension.
func ContentTypeForFilename(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ct, ok := AllowedDocumentExtensions[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

// AgencyDocumentKey returns agencies/{agency_id}/{object_id}-{filename}.
func AgencyDocumentKey(agencyID, objectID, filename string) string {
	return path.Join(FolderAgencies, agencyID, objectID+"-"+path.Base(filename))
}

// QuoteAttachmentKey returns quotes/{quote_id}/{kind}/{object_id}-{filename}.
func QuoteAttachmentKey(quoteID, kind, objectID, filename string) string {
	return path.Join(FolderQuotes, quoteID, kind, objectID+"-"+path.Base(filename))
}

// AgencyDocumentPrefix returns the key prefix owned by one agency.
func AgencyDocumentPrefix(agencyID string) string {
	return path.Join(FolderAgencies, agencyID) + "/"
}

// QuoteAttachmentPrefix returns the key prefix for one kind of attachment on a quote.
func QuoteAttachmentPrefix(quoteID, kind string) string {
	return path.Join(FolderQuotes, quoteID, kind) + "/"
}

// KeyUnder reports whether key is a clean object key directly under prefix.
func KeyUnder(prefix, key string) bool {
	if !strings.HasPrefix(key, prefix) || path.Clean(key) != key {
		return false
	}
	rest := strings.TrimPrefix(key, prefix)
	return rest != "" && !strings.Contains(rest, "/")
}

// PresignUpload returns a pre-signed PUT URL for a direct upload into the documents bucket.
func (s *S3) PresignUpload(ctx context.Context, key, contentType string) (string, error) {
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.DocumentsBucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.PresignExpire()
	})
	if err != nil {
		return "", fmt.Errorf("presign put: %w", err)
	}
	return req.URL, nil
}

// PresignDownload returns a pre-signed GET URL from the documents bucket.
func (s *S3) PresignDownload(ctx context.Context, key string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.DocumentsBucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.PresignExpire()
	})
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}

// PresignExpire returns the configured presign duration.
func (s *S3) PresignExpire() time.Duration {
	if s.cfg.PresignExpireMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(s.cfg.PresignExpireMinutes) * time.Minute
}

// Exists checks that an uploaded object is present in the documents bucket.
func (s *S3) Exists(ctx context.Context, key string) error {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.DocumentsBucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("head object: %w", err)
	}
	return nil
}

// Delete removes an object from the documents bucket.
func (s *S3) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.DocumentsBucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
