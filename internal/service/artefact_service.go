package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/assessly/assessly-api/internal/apperr"
	"github.com/assessly/assessly-api/internal/models"
	"github.com/assessly/assessly-api/internal/repository"
	"github.com/assessly/assessly-api/pkg/objectstore"
)

// ArtefactFetcher downloads artefact bytes from the external object store.
type ArtefactFetcher interface {
	Fetch(ctx context.Context, key string) (objectstore.Object, error)
}

// ArtefactDownload is a fully resolved artefact ready to stream back.
type ArtefactDownload struct {
	Artefact    models.Artefact
	Body        io.ReadCloser
	ContentType string
}

// ArtefactService proxies artefact downloads behind the authorization guard.
type ArtefactService interface {
	Download(ctx context.Context, artefactID uint, actor Actor) (ArtefactDownload, error)
}

type artefactService struct {
	content repository.ContentRepository
	fetcher ArtefactFetcher
	guard   Guard
	logger  zerolog.Logger
}

// NewArtefactService constructs the artefact download service.
func NewArtefactService(content repository.ContentRepository, modules repository.ModuleRepository, fetcher ArtefactFetcher, logger zerolog.Logger) ArtefactService {
	return &artefactService{
		content: content,
		fetcher: fetcher,
		guard:   NewGuard(modules),
		logger:  logger.With().Str("component", "artefact_service").Logger(),
	}
}

// Download authorizes the caller against the artefact's module, then fetches
// the bytes through a signed object store request. When neither the stored
// descriptor nor the upstream response declares a content type, the first
// bytes of the stream are sniffed.
func (s *artefactService) Download(ctx context.Context, artefactID uint, actor Actor) (ArtefactDownload, error) {
	artefact, err := s.content.GetArtefact(ctx, artefactID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ArtefactDownload{}, apperr.NotFound("artefact not found")
		}
		return ArtefactDownload{}, apperr.Internal(fmt.Errorf("failed to load artefact: %w", err))
	}

	question, err := s.content.GetQuestion(ctx, artefact.QuestionID)
	if err != nil {
		return ArtefactDownload{}, apperr.Internal(fmt.Errorf("failed to load question: %w", err))
	}

	module, err := s.guard.Module(ctx, question.ModuleID)
	if err != nil {
		return ArtefactDownload{}, err
	}

	switch {
	case actor.IsAdmin():
	case actor.IsInstructor():
		if err := s.guard.RequireInstructor(ctx, actor, module.ID); err != nil {
			return ArtefactDownload{}, apperr.NotFound("artefact not found")
		}
	case actor.IsStudent():
		if err := s.guard.RequireStudentContentAccess(ctx, actor, module); err != nil {
			return ArtefactDownload{}, apperr.NotFound("artefact not found")
		}
	default:
		return ArtefactDownload{}, apperr.Forbidden("insufficient permissions")
	}

	object, err := s.fetcher.Fetch(ctx, artefact.StorageKey)
	if err != nil {
		return ArtefactDownload{}, apperr.Internal(fmt.Errorf("failed to fetch artefact bytes: %w", err))
	}

	contentType := object.ContentType
	if contentType == "" {
		contentType = artefact.FileType
	}

	body := object.Body
	if contentType == "" {
		body, contentType, err = sniffContentType(object.Body)
		if err != nil {
			return ArtefactDownload{}, apperr.Internal(fmt.Errorf("failed to detect content type: %w", err))
		}
	}

	return ArtefactDownload{
		Artefact:    artefact,
		Body:        body,
		ContentType: contentType,
	}, nil
}

// sniffContentType reads a detection prefix from the stream and returns a
// reader that replays it before the remainder.
func sniffContentType(body io.ReadCloser) (io.ReadCloser, string, error) {
	prefix := make([]byte, 3072)
	n, err := io.ReadFull(body, prefix)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		body.Close()
		return nil, "", err
	}
	prefix = prefix[:n]

	detected := mimetype.Detect(prefix)

	return &replayReadCloser{
		reader: io.MultiReader(bytes.NewReader(prefix), body),
		closer: body,
	}, detected.String(), nil
}

type replayReadCloser struct {
	reader io.Reader
	closer io.Closer
}

func (r *replayReadCloser) Read(p []byte) (int, error) { return r.reader.Read(p) }
func (r *replayReadCloser) Close() error               { return r.closer.Close() }
