// internal/services/storage_service.go
package services

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"

	"github.com/relicense/ledger-backend/internal/config"
)

// StorageService stores asset content and hands back the locator and
// checksum that go into mint metadata.
type StorageService struct {
	s3Client *s3.S3
	config   *config.Config
}

type UploadResult struct {
	ContentURI string `json:"content_uri"`
	Key        string `json:"key"`
	Checksum   string `json:"checksum"`
	Size       int64  `json:"size"`
	MimeType   string `json:"mime_type"`
}

const maxContentSize = 50 * 1024 * 1024 // 50MB

func NewStorageService(config *config.Config) (*StorageService, error) {
	if config.AWS.AccessKeyID == "" {
		// Return service without S3 for local development
		return &StorageService{config: config}, nil
	}

	// Create AWS session
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AWS.AccessKeyID,
			config.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		config:   config,
	}, nil
}

// UploadContent stores one content file and returns its locator plus the
// sha256 checksum callers put into the metadata they mint.
func (s *StorageService) UploadContent(file multipart.File, header *multipart.FileHeader) (*UploadResult, error) {
	if header.Size > maxContentSize {
		return nil, fmt.Errorf("file size %d bytes exceeds maximum allowed size %d bytes", header.Size, maxContentSize)
	}

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	sum := sha256.Sum256(fileBytes)
	checksum := hex.EncodeToString(sum[:])
	key := s.generateFileName(header.Filename)
	contentType := header.Header.Get("Content-Type")

	var uri string
	if s.s3Client != nil {
		uri, err = s.uploadToS3(fileBytes, key, contentType)
		if err != nil {
			return nil, err
		}
	} else {
		// Local development: no object store attached.
		uri = fmt.Sprintf("http://localhost:8080/uploads/%s", key)
	}

	return &UploadResult{
		ContentURI: uri,
		Key:        key,
		Checksum:   checksum,
		Size:       int64(len(fileBytes)),
		MimeType:   contentType,
	}, nil
}

func (s *StorageService) uploadToS3(fileBytes []byte, key, contentType string) (string, error) {
	params := &s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(fileBytes),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(fileBytes))),
	}

	if _, err := s.s3Client.PutObject(params); err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return s.getS3URL(key), nil
}

func (s *StorageService) DeleteContent(key string) error {
	if s.s3Client == nil {
		return nil
	}

	_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.config.AWS.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}

	return nil
}

// GeneratePresignedURL returns a time-limited download link for content that
// is not served through a public distribution.
func (s *StorageService) GeneratePresignedURL(key string, expiration time.Duration) (string, error) {
	if s.s3Client == nil {
		return "", fmt.Errorf("S3 client not configured")
	}

	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.config.AWS.S3Bucket),
		Key:    aws.String(key),
	})

	url, err := req.Presign(expiration)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url, nil
}

func (s *StorageService) generateFileName(originalName string) string {
	id := uuid.New()
	ext := filepath.Ext(originalName)
	timestamp := time.Now().Format("20060102")
	return fmt.Sprintf("content/%s_%s%s", timestamp, id.String()[:8], ext)
}

func (s *StorageService) getS3URL(key string) string {
	if s.config.AWS.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", s.config.AWS.CloudFrontURL, key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.config.AWS.S3Bucket, s.config.AWS.Region, key)
}
