package upload

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Service struct {
	uploads Repository
	baseDir string
	log     zerolog.Logger
}

func NewService(uploads Repository, baseDir string, log zerolog.Logger) *Service {
	return &Service{uploads: uploads, baseDir: baseDir, log: log}
}

// fileExt returns the lowercased extension, treating ".nii.gz" as one unit.
func fileExt(name string) string {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".nii.gz") {
		return ".nii.gz"
	}
	return filepath.Ext(lower)
}

func categoryAllows(category, name string) bool {
	allowed, ok := allowedExtensions[category]
	if !ok {
		allowed = allowedExtensions["general"]
	}
	ext := fileExt(name)
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}

// ValidCategory reports whether the category has its own allow-list.
func ValidCategory(category string) bool {
	_, ok := allowedExtensions[category]
	return ok
}

// Store writes the multipart file under baseDir/<category>/ with a
// generated filename and records a metadata row.
func (s *Service) Store(ctx context.Context, category string, fh *multipart.FileHeader) (*Upload, error) {
	if !ValidCategory(category) {
		return nil, fmt.Errorf("unknown upload category: %s", category)
	}
	if !categoryAllows(category, fh.Filename) {
		return nil, fmt.Errorf("file type %s is not allowed for %s uploads", fileExt(fh.Filename), category)
	}

	dir := filepath.Join(s.baseDir, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}

	storedName := uuid.NewString() + fileExt(fh.Filename)
	dst, err := os.Create(filepath.Join(dir, storedName))
	if err != nil {
		return nil, fmt.Errorf("creating upload file: %w", err)
	}
	defer dst.Close()

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("opening multipart file: %w", err)
	}
	defer src.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		return nil, fmt.Errorf("writing upload file: %w", err)
	}

	u := &Upload{
		Category:     category,
		OriginalName: fh.Filename,
		StoredName:   storedName,
		SizeBytes:    size,
		MimeType:     fh.Header.Get("Content-Type"),
	}
	if err := s.uploads.Create(ctx, u); err != nil {
		// Keep the disk self-consistent with the metadata table.
		if rmErr := os.Remove(filepath.Join(dir, storedName)); rmErr != nil {
			s.log.Warn().Err(rmErr).Str("file", storedName).Msg("failed to remove orphaned upload file")
		}
		return nil, fmt.Errorf("recording upload metadata: %w", err)
	}
	return u, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Upload, int, error) {
	return s.uploads.List(ctx, limit, offset)
}

// Delete removes the metadata row and then the file on disk. A missing
// file is not an error.
func (s *Service) Delete(ctx context.Context, id int64) error {
	u, err := s.uploads.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.uploads.Delete(ctx, id); err != nil {
		return err
	}
	path := filepath.Join(s.baseDir, u.Category, u.StoredName)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.log.Warn().Err(err).Str("file", u.StoredName).Msg("failed to remove upload file")
	}
	return nil
}
