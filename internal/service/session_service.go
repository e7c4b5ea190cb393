package service

import (
	"context"
	"errors"

	"cardforge-be/internal/config"
	"cardforge-be/internal/dto"
	"cardforge-be/internal/pkg/logger"
	"cardforge-be/internal/pkg/serverutils"
	"cardforge-be/internal/repository/memory"
	"cardforge-be/pkg/card"
	"cardforge-be/pkg/store"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISessionService interface {
	Open(ctx context.Context, req *dto.OpenSessionRequest) (*dto.SessionResponse, error)
	Get(ctx context.Context, id string) (*dto.SessionResponse, error)
	Mutate(ctx context.Context, id string, req *dto.MutateSessionRequest) (*dto.MutateSessionResponse, error)
	Undo(ctx context.Context, id string) (*dto.SessionResponse, error)
	Redo(ctx context.Context, id string) (*dto.SessionResponse, error)
	Save(ctx context.Context, id string) (*dto.MutateSessionResponse, error)
	Reset(ctx context.Context, id string) (*dto.SessionResponse, error)
	Close(ctx context.Context, id string) error
}

type sessionService struct {
	repo   *memory.SessionRepository
	config config.SessionConfig
	logger logger.ILogger
}

func NewSessionService(repo *memory.SessionRepository, cfg config.SessionConfig, logger logger.ILogger) ISessionService {
	return &sessionService{
		repo:   repo,
		config: cfg,
		logger: logger,
	}
}

func (s *sessionService) Open(ctx context.Context, req *dto.OpenSessionRequest) (*dto.SessionResponse, error) {
	// Run the document through the importer so V2 cards are migrated and
	// broken ones rejected before a session exists for them.
	raw, err := card.MarshalCompact(req.Card)
	if err != nil {
		return nil, serverutils.NewAppError(fiber.StatusBadRequest, serverutils.CodeInvalidFormat, "Card is not serializable").WithErr(err)
	}
	parsed, err := card.ImportJSON(raw)
	if err != nil {
		var importErr *card.ImportError
		if errors.As(err, &importErr) {
			return nil, serverutils.NewAppError(fiber.StatusBadRequest, serverutils.CodeParseError, importErr.Reason).WithErr(err)
		}
		return nil, err
	}

	session := store.NewSession(uuid.NewString(), parsed.Document, s.config.HistorySize, s.config.DirtyDebounce, s.logger)
	session.Filename = req.Filename
	s.repo.Save(session)

	s.logger.Info("session", "Session opened", map[string]interface{}{
		"session_id": session.ID,
		"name":       session.Name,
	})
	return sessionResponse(session), nil
}

func (s *sessionService) Get(ctx context.Context, id string) (*dto.SessionResponse, error) {
	session, err := s.find(id)
	if err != nil {
		return nil, err
	}
	return sessionResponse(session), nil
}

func (s *sessionService) Mutate(ctx context.Context, id string, req *dto.MutateSessionRequest) (*dto.MutateSessionResponse, error) {
	session, err := s.find(id)
	if err != nil {
		return nil, err
	}

	if !session.Mutate(req.Path, req.Value) {
		return nil, serverutils.NewAppError(fiber.StatusBadRequest, serverutils.CodeValidationError, "Path could not be written").
			WithHint("Check that intermediate segments are objects or arrays: " + req.Path)
	}
	return &dto.MutateSessionResponse{State: sessionState(session)}, nil
}

func (s *sessionService) Undo(ctx context.Context, id string) (*dto.SessionResponse, error) {
	session, err := s.find(id)
	if err != nil {
		return nil, err
	}

	if session.Undo() == nil {
		return nil, serverutils.NewAppError(fiber.StatusConflict, serverutils.CodeValidationError, "Nothing to undo")
	}
	return sessionResponse(session), nil
}

func (s *sessionService) Redo(ctx context.Context, id string) (*dto.SessionResponse, error) {
	session, err := s.find(id)
	if err != nil {
		return nil, err
	}

	if session.Redo() == nil {
		return nil, serverutils.NewAppError(fiber.StatusConflict, serverutils.CodeValidationError, "Nothing to redo")
	}
	return sessionResponse(session), nil
}

func (s *sessionService) Save(ctx context.Context, id string) (*dto.MutateSessionResponse, error) {
	session, err := s.find(id)
	if err != nil {
		return nil, err
	}

	session.Save()
	return &dto.MutateSessionResponse{State: sessionState(session)}, nil
}

func (s *sessionService) Reset(ctx context.Context, id string) (*dto.SessionResponse, error) {
	session, err := s.find(id)
	if err != nil {
		return nil, err
	}

	session.Reset()
	return sessionResponse(session), nil
}

func (s *sessionService) Close(ctx context.Context, id string) error {
	if _, err := s.find(id); err != nil {
		return err
	}

	s.repo.Delete(id)
	s.logger.Info("session", "Session closed", map[string]interface{}{
		"session_id": id,
	})
	return nil
}

func (s *sessionService) find(id string) (*store.Session, error) {
	session, found := s.repo.Get(id)
	if !found {
		return nil, serverutils.NewAppError(fiber.StatusNotFound, serverutils.CodeNotFound, "Session not found or expired")
	}
	return session, nil
}

func sessionState(session *store.Session) dto.SessionState {
	pos, length := session.HistoryPosition()
	return dto.SessionState{
		Id:              session.ID,
		Name:            session.Name,
		Filename:        session.Filename,
		Dirty:           session.Dirty(),
		CanUndo:         session.CanUndo(),
		CanRedo:         session.CanRedo(),
		HistoryPosition: pos,
		HistoryLength:   length,
		CreatedAt:       session.CreatedAt,
		UpdatedAt:       session.UpdatedAt,
	}
}

func sessionResponse(session *store.Session) *dto.SessionResponse {
	return &dto.SessionResponse{
		State: sessionState(session),
		Card:  session.Snapshot(),
	}
}
