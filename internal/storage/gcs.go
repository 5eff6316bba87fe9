package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gcs "google.golang.org/api/storage/v1"
)

// ServiceAccount is a parsed service-account key file.
type ServiceAccount struct {
	ProjectID   string
	ClientEmail string
	Credentials *google.Credentials
}

// LoadServiceAccount reads and parses a service-account JSON key. A missing or
// malformed file is an error the caller treats as fatal.
func LoadServiceAccount(ctx context.Context, path string) (*ServiceAccount, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no file configured", ErrServiceAccount)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceAccount, err)
	}
	return ParseServiceAccount(ctx, data)
}

// ParseServiceAccount parses service-account JSON key bytes.
func ParseServiceAccount(ctx context.Context, data []byte) (*ServiceAccount, error) {
	var key struct {
		Type        string `json:"type"`
		ProjectID   string `json:"project_id"`
		ClientEmail string `json:"client_email"`
		PrivateKey  string `json:"private_key"`
	}
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceAccount, err)
	}
	if key.Type != "service_account" || key.ClientEmail == "" || key.PrivateKey == "" {
		return nil, fmt.Errorf("%w: missing type, client_email or private_key", ErrServiceAccount)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, gcs.DevstorageReadWriteScope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceAccount, err)
	}
	return &ServiceAccount{
		ProjectID:   key.ProjectID,
		ClientEmail: key.ClientEmail,
		Credentials: creds,
	}, nil
}

// GCSUploader writes objects to a Google Cloud Storage bucket.
type GCSUploader struct {
	service       *gcs.Service
	bucket        string
	publicBaseURL string
}

// NewGCSUploader creates an uploader for bucket. Extra options are appended after
// the credentials (tests point the endpoint at a local server).
func NewGCSUploader(ctx context.Context, sa *ServiceAccount, bucket string, opts ...option.ClientOption) (*GCSUploader, error) {
	if bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	var all []option.ClientOption
	if sa != nil && sa.Credentials != nil {
		all = append(all, option.WithCredentials(sa.Credentials))
	}
	all = append(all, opts...)
	svc, err := gcs.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage service: %w", err)
	}
	return &GCSUploader{
		service:       svc,
		bucket:        bucket,
		publicBaseURL: "https://storage.googleapis.com",
	}, nil
}

// Upload stores r under name and returns the object's public URL.
func (u *GCSUploader) Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	obj := &gcs.Object{
		Name:         name,
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000",
	}
	stored, err := u.service.Objects.Insert(u.bucket, obj).
		Media(r, googleapi.ContentType(contentType)).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", name, err)
	}
	log.WithFields(log.Fields{
		"bucket": u.bucket,
		"object": stored.Name,
		"size":   stored.Size,
	}).Debug("Object stored")
	return u.PublicURL(stored.Name), nil
}

// PublicURL is where an object of the bucket is served.
func (u *GCSUploader) PublicURL(name string) string {
	return u.publicBaseURL + "/" + url.PathEscape(u.bucket) + "/" + (&url.URL{Path: name}).EscapedPath()
}
