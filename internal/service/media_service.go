package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/h2non/filetype"
	config "github.com/marketloom/autopost/configs"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// NormalizedMedia is a durable HTTPS reference ready for the gateway.
type NormalizedMedia struct {
	URL     string
	IsVideo bool
}

// MediaService turns every media reference into a durable HTTP(S) URL.
// Already-hosted URLs pass through; inline payloads are validated against the
// allow-list and pushed to object storage first.
type MediaService interface {
	Normalize(ctx context.Context, ref string) (*NormalizedMedia, error)
	NormalizeAll(ctx context.Context, refs []string) (imageURLs, videoURLs []string, err error)
}

type mediaService struct {
	cfg     config.Config
	storage StorageService
	allowed map[string]bool
}

func NewMediaService(cfg config.Config, storage StorageService) MediaService {
	allowed := make(map[string]bool, len(cfg.Publishing.AllowedMediaTypes))
	for _, mediaType := range cfg.Publishing.AllowedMediaTypes {
		allowed[mediaType] = true
	}
	return &mediaService{cfg: cfg, storage: storage, allowed: allowed}
}

func (s *mediaService) Normalize(ctx context.Context, ref string) (*NormalizedMedia, error) {
	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return &NormalizedMedia{URL: ref, IsVideo: hasVideoExtension(ref)}, nil
	case strings.HasPrefix(ref, "data:"):
		return s.uploadInline(ctx, ref)
	default:
		err := fmt.Errorf("%w: media reference is neither a URL nor an inline payload", ErrUnsupportedMediaFormat)
		slog.Info(err.Error())
		return nil, err
	}
}

// NormalizeAll normalizes each item independently and partitions the results
// into image and video URL lists, which the gateway takes in separate fields.
func (s *mediaService) NormalizeAll(ctx context.Context, refs []string) ([]string, []string, error) {
	var imageURLs, videoURLs []string
	for _, ref := range refs {
		media, err := s.Normalize(ctx, ref)
		if err != nil {
			return nil, nil, err
		}
		if media.IsVideo {
			videoURLs = append(videoURLs, media.URL)
		} else {
			imageURLs = append(imageURLs, media.URL)
		}
	}
	return imageURLs, videoURLs, nil
}

// uploadInline decodes a data URI, validates its content type and pushes it to
// object storage. Inline payloads are caller-controlled and must never reach
// storage unvalidated.
func (s *mediaService) uploadInline(ctx context.Context, ref string) (*NormalizedMedia, error) {
	declared, payload, err := parseDataURI(ref)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	contentType := declared
	if sniffed, err := filetype.Match(payload); err == nil && sniffed != filetype.Unknown {
		contentType = sniffed.MIME.Value
	}
	if !s.allowed[contentType] {
		err := fmt.Errorf("%w: content type %s is not allowed", ErrUnsupportedMediaFormat, contentType)
		slog.Info(err.Error())
		return nil, err
	}

	key, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	publicURL, err := s.storage.Upload(ctx, key, payload, contentType)
	if err != nil {
		return nil, fmt.Errorf("error uploading media: %w", err)
	}

	return &NormalizedMedia{URL: publicURL, IsVideo: strings.HasPrefix(contentType, "video/")}, nil
}

func parseDataURI(ref string) (contentType string, payload []byte, err error) {
	rest := strings.TrimPrefix(ref, "data:")
	meta, data, found := strings.Cut(rest, ",")
	if !found {
		return "", nil, fmt.Errorf("%w: malformed data URI", ErrUnsupportedMediaFormat)
	}

	contentType = strings.TrimSuffix(meta, ";base64")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if strings.HasSuffix(meta, ";base64") {
		payload, err = base64.StdEncoding.DecodeString(data)
	} else {
		var decoded string
		decoded, err = url.QueryUnescape(data)
		payload = []byte(decoded)
	}
	if err != nil {
		return "", nil, fmt.Errorf("%w: cannot decode inline payload", ErrUnsupportedMediaFormat)
	}
	return contentType, payload, nil
}

func hasVideoExtension(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	switch strings.ToLower(path.Ext(u.Path)) {
	case ".mp4", ".mov", ".m4v":
		return true
	}
	return false
}
