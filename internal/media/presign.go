// Package media hands out presigned S3 upload URLs for avatars and post
// images. Clients PUT the file directly to object storage and then store the
// returned public URL on their profile or post.
package media

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/oggyb/campus-match/internal/config"
	svcErr "github.com/oggyb/campus-match/internal/errors"
)

// Kind is the upload purpose; it is the first segment of the object key.
type Kind string

const (
	KindAvatar Kind = "avatar"
	KindPost   Kind = "post"
)

var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Upload is what the client needs to PUT a file and reference it later.
type Upload struct {
	UploadURL string    `json:"upload_url"`
	ObjectKey string    `json:"object_key"`
	PublicURL string    `json:"public_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Presigner struct {
	client *s3.PresignClient
	cfg    config.S3Config
	now    func() time.Time
}

// NewPresigner builds an S3 presign client. Static credentials are used when
// configured, otherwise the default AWS credential chain applies. A custom
// endpoint (MinIO, LocalStack) switches to path-style addressing.
func NewPresigner(ctx context.Context, cfg config.S3Config) (*Presigner, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is not configured")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Presigner{
		client: s3.NewPresignClient(client),
		cfg:    cfg,
		now:    time.Now,
	}, nil
}

func parseKind(raw string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(raw))); k {
	case KindAvatar, KindPost:
		return k, nil
	}
	return "", svcErr.Validation("kind must be avatar or post")
}

func extensionFor(contentType string) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	ext, ok := extensions[ct]
	if !ok {
		return "", svcErr.Validation("content_type must be image/jpeg, image/png, image/gif or image/webp")
	}
	return ext, nil
}

// ObjectKey returns <kind>/<userId>/<uuid>.<ext>.
func ObjectKey(kind Kind, userID uint64, ext string) string {
	return fmt.Sprintf("%s/%d/%s.%s", kind, userID, uuid.NewString(), ext)
}

// PublicURL is where the object can be read once uploaded.
func (p *Presigner) PublicURL(key string) string {
	switch {
	case p.cfg.PublicBaseURL != "":
		return strings.TrimRight(p.cfg.PublicBaseURL, "/") + "/" + key
	case p.cfg.Endpoint != "":
		return strings.TrimRight(p.cfg.Endpoint, "/") + "/" + p.cfg.Bucket + "/" + key
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.cfg.Bucket, p.cfg.Region, key)
	}
}

// Presign issues a PUT URL for one image upload.
//
// Behavior:
//   - kind is avatar or post; contentType must be a supported image type.
//   - The signed request pins the content type, so the upload must send
//     the same Content-Type header.
//   - The URL expires after the configured TTL.
func (p *Presigner) Presign(ctx context.Context, userID uint64, kind, contentType string) (*Upload, error) {
	k, err := parseKind(kind)
	if err != nil {
		return nil, err
	}
	ext, err := extensionFor(contentType)
	if err != nil {
		return nil, err
	}

	ttl := p.cfg.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	key := ObjectKey(k, userID, ext)
	issued := p.now()

	req, err := p.client.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(strings.ToLower(strings.TrimSpace(contentType))),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return nil, svcErr.Internal(fmt.Errorf("presign put %s: %w", key, err))
	}

	return &Upload{
		UploadURL: req.URL,
		ObjectKey: key,
		PublicURL: p.PublicURL(key),
		ExpiresAt: issued.Add(ttl).UTC(),
	}, nil
}
