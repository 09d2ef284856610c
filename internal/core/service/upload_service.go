package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/blogapi/blog-service/internal/core/domain"
	"github.com/blogapi/blog-service/internal/core/ports"
)

const maxStoredNameLen = 96

type UploadService struct {
	files  ports.FileStore
	logger zerolog.Logger
}

func NewUploadService(files ports.FileStore, logger zerolog.Logger) *UploadService {
	return &UploadService{files: files, logger: logger}
}

// Upload stores the stream under a fresh name that keeps a sanitised form of
// original as a suffix. Empty streams are rejected with domain.ErrEmptyUpload.
func (s *UploadService) Upload(ctx context.Context, caller domain.Principal, original string, r io.Reader) (string, error) {
	if err := requireAuthority(caller, domain.RoleAdmin); err != nil {
		return "", err
	}

	name := uuid.NewString() + "-" + sanitizeFilename(original)
	n, err := s.files.Save(ctx, name, r)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	if n == 0 {
		if delErr := s.files.Delete(ctx, name); delErr != nil {
			s.logger.Warn().Err(delErr).Str("file", name).Msg("failed to remove empty upload")
		}
		return "", domain.ErrEmptyUpload
	}

	s.logger.Info().Str("file", name).Int64("bytes", n).Str("owner", caller.Username).Msg("file uploaded")
	return name, nil
}

func sanitizeFilename(original string) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name := strings.TrimLeft(b.String(), ".")
	if name == "" {
		name = "file"
	}
	if len(name) > maxStoredNameLen {
		name = name[len(name)-maxStoredNameLen:]
	}
	return name
}
