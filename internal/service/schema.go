package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iancoleman/strcase"
	"gorm.io/gorm"

	"github.com/Skotchmaster/cms_admin/internal/cache"
	"github.com/Skotchmaster/cms_admin/internal/events"
	"github.com/Skotchmaster/cms_admin/internal/logging"
	"github.com/Skotchmaster/cms_admin/internal/models"
	"github.com/Skotchmaster/cms_admin/internal/repo"
	"github.com/Skotchmaster/cms_admin/internal/search"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

type SchemaStore interface {
	GetModelByIdentifier(ctx context.Context, identifier string) (*models.Model, error)
	GetModelByID(ctx context.Context, id uuid.UUID) (*models.Model, error)
	ListModels(ctx context.Context) ([]models.Model, error)
	CreateModel(ctx context.Context, m *models.Model) error
	DeleteModel(ctx context.Context, id uuid.UUID) (*models.Model, error)
	CreateField(ctx context.Context, f *models.Field) error
	ListFields(ctx context.Context, modelID uuid.UUID) ([]models.Field, error)
	DeleteField(ctx context.Context, id uuid.UUID) (*models.Field, error)
}

type SchemaService struct {
	Repo     SchemaStore
	Cache    cache.Cache
	CacheTTL time.Duration
	Search   search.Indexer
	Events   events.Publisher
}

type CreateModelInput struct {
	ModelName   string
	Identifier  string
	Description string
}

type CreateFieldInput struct {
	ModelID      uuid.UUID
	FieldName    string
	Identifier   string
	Type         string
	DefaultValue string
	Description  string
	IsHide       bool
	IsMedia      bool
	IsUnique     bool
	IsRequired   bool
	IsSystem     bool
	IsPrimaryKey bool
}

func modelKey(identifier string) string { return "model:" + identifier }

func (s *SchemaService) kv() cache.Cache {
	if s.Cache == nil {
		return cache.Nop{}
	}
	return s.Cache
}

func (s *SchemaService) indexer() search.Indexer {
	if s.Search == nil {
		return search.Disabled{}
	}
	return s.Search
}

func (s *SchemaService) publish(ctx context.Context, key string, event map[string]any) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishEvent(ctx, events.TopicSchemaEvents, key, event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_error", "topic", events.TopicSchemaEvents, "error", err)
	}
}

// refresh drops the cached copy of a model and pushes its current state to
// the search index. Failures here never fail the write that triggered them.
func (s *SchemaService) refresh(ctx context.Context, modelID uuid.UUID) {
	l := logging.FromContext(ctx)

	m, err := s.Repo.GetModelByID(ctx, modelID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("reindex_error", "reason", "cannot load model", "error", err)
		}
		return
	}
	if err := s.kv().Delete(ctx, modelKey(m.Identifier)); err != nil {
		l.Warn("cache_invalidate_error", "identifier", m.Identifier, "error", err)
	}
	if err := s.indexer().IndexModel(ctx, m); err != nil {
		l.Warn("reindex_error", "model_id", modelID.String(), "error", err)
	}
}

func (s *SchemaService) GetModel(ctx context.Context, identifier string) (*models.Model, error) {
	l := logging.FromContext(ctx).With("svc", "schema.get_model")

	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, required("identifier")
	}

	if raw, err := s.kv().Get(ctx, modelKey(identifier)); err == nil {
		var m models.Model
		if err := json.Unmarshal(raw, &m); err == nil {
			return &m, nil
		}
		l.Warn("cache_decode_error", "identifier", identifier)
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		l.Warn("cache_get_error", "error", err)
	}

	m, err := s.Repo.GetModelByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("model %s: %w", identifier, ErrNotFound)
		}
		l.Error("get_model_error", "status", 500, "reason", "db error", "error", err)
		return nil, err
	}

	if raw, err := json.Marshal(m); err == nil {
		if err := s.kv().Set(ctx, modelKey(identifier), raw, s.CacheTTL); err != nil {
			l.Warn("cache_set_error", "error", err)
		}
	}
	return m, nil
}

func (s *SchemaService) GetModels(ctx context.Context) ([]models.Model, error) {
	ms, err := s.Repo.ListModels(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("get_models_error", "status", 500, "reason", "db error", "error", err)
		return nil, err
	}
	return ms, nil
}

func (s *SchemaService) CreateModel(ctx context.Context, in CreateModelInput) (*models.Model, error) {
	l := logging.FromContext(ctx).With("svc", "schema.create_model")

	name := strings.TrimSpace(in.ModelName)
	if name == "" {
		return nil, required("modelName")
	}
	identifier := strings.TrimSpace(in.Identifier)
	if identifier == "" {
		identifier = strcase.ToLowerCamel(name)
	}
	if !identifierRe.MatchString(identifier) {
		return nil, &ValidationError{Fields: []string{"identifier"}, Reason: "invalid identifier"}
	}

	m := &models.Model{
		Identifier:  identifier,
		ModelName:   name,
		Description: strings.TrimSpace(in.Description),
	}
	if err := s.Repo.CreateModel(ctx, m); err != nil {
		if errors.Is(err, repo.ErrAlreadyExists) {
			l.Warn("create_model_error", "status", 409, "reason", "identifier taken", "identifier", identifier)
			return nil, fmt.Errorf("model %s: %w", identifier, ErrConflict)
		}
		l.Error("create_model_error", "status", 500, "reason", "db error", "error", err)
		return nil, err
	}

	s.refresh(ctx, m.ID)
	s.publish(ctx, m.ID.String(), map[string]any{
		"type":       "model_created",
		"modelID":    m.ID.String(),
		"identifier": m.Identifier,
	})
	return m, nil
}

func (s *SchemaService) DeleteModel(ctx context.Context, id uuid.UUID) (*models.Model, error) {
	l := logging.FromContext(ctx).With("svc", "schema.delete_model")

	m, err := s.Repo.DeleteModel(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("model %s: %w", id, ErrNotFound)
		}
		l.Error("delete_model_error", "status", 500, "reason", "db error", "error", err)
		return nil, err
	}

	if err := s.kv().Delete(ctx, modelKey(m.Identifier)); err != nil {
		l.Warn("cache_invalidate_error", "error", err)
	}
	if err := s.indexer().DeleteModel(ctx, m.ID.String()); err != nil {
		l.Warn("unindex_error", "model_id", m.ID.String(), "error", err)
	}
	s.publish(ctx, m.ID.String(), map[string]any{
		"type":       "model_deleted",
		"modelID":    m.ID.String(),
		"identifier": m.Identifier,
	})
	return m, nil
}

func (s *SchemaService) CreateField(ctx context.Context, in CreateFieldInput) (*models.Field, error) {
	l := logging.FromContext(ctx).With("svc", "schema.create_field")

	in.FieldName = strings.TrimSpace(in.FieldName)
	in.Identifier = strings.TrimSpace(in.Identifier)
	in.Type = strings.TrimSpace(in.Type)

	var missing []string
	if in.ModelID == uuid.Nil {
		missing = append(missing, "modelId")
	}
	if in.FieldName == "" {
		missing = append(missing, "fieldName")
	}
	if in.Identifier == "" {
		missing = append(missing, "identifier")
	}
	if in.Type == "" {
		missing = append(missing, "type")
	}
	if len(missing) > 0 {
		return nil, required(missing...)
	}
	if !identifierRe.MatchString(in.Identifier) {
		return nil, &ValidationError{Fields: []string{"identifier"}, Reason: "invalid identifier"}
	}

	f := &models.Field{
		ModelID:      in.ModelID,
		FieldName:    in.FieldName,
		Identifier:   in.Identifier,
		Type:         in.Type,
		DefaultValue: in.DefaultValue,
		Description:  in.Description,
		IsHide:       in.IsHide,
		IsMedia:      in.IsMedia,
		IsUnique:     in.IsUnique,
		IsRequired:   in.IsRequired,
		IsSystem:     in.IsSystem,
		IsPrimaryKey: in.IsPrimaryKey,
	}
	if err := s.Repo.CreateField(ctx, f); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			l.Warn("create_field_error", "status", 404, "reason", "model not found", "model_id", in.ModelID.String())
			return nil, fmt.Errorf("model %s: %w", in.ModelID, ErrNotFound)
		case errors.Is(err, repo.ErrAlreadyExists):
			l.Warn("create_field_error", "status", 409, "reason", "identifier taken", "identifier", in.Identifier)
			return nil, fmt.Errorf("field %s: %w", in.Identifier, ErrConflict)
		}
		l.Error("create_field_error", "status", 500, "reason", "db error", "error", err)
		return nil, err
	}

	s.refresh(ctx, f.ModelID)
	s.publish(ctx, f.ModelID.String(), map[string]any{
		"type":       "field_created",
		"modelID":    f.ModelID.String(),
		"fieldID":    f.ID.String(),
		"identifier": f.Identifier,
	})
	return f, nil
}

func (s *SchemaService) GetFields(ctx context.Context, modelID uuid.UUID) ([]models.Field, error) {
	if modelID == uuid.Nil {
		return nil, required("modelId")
	}
	fs, err := s.Repo.ListFields(ctx, modelID)
	if err != nil {
		logging.FromContext(ctx).Error("get_fields_error", "status", 500, "reason", "db error", "error", err)
		return nil, err
	}
	return fs, nil
}

func (s *SchemaService) DeleteField(ctx context.Context, id uuid.UUID) (*models.Field, error) {
	l := logging.FromContext(ctx).With("svc", "schema.delete_field")

	f, err := s.Repo.DeleteField(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("field %s: %w", id, ErrNotFound)
		}
		l.Error("delete_field_error", "status", 500, "reason", "db error", "error", err)
		return nil, err
	}

	s.refresh(ctx, f.ModelID)
	s.publish(ctx, f.ModelID.String(), map[string]any{
		"type":    "field_deleted",
		"modelID": f.ModelID.String(),
		"fieldID": f.ID.String(),
	})
	return f, nil
}

type SearchResult struct {
	Total int64
	Hits  []search.Document
}

func (s *SchemaService) SearchModels(ctx context.Context, query string, from, size int) (*SearchResult, error) {
	total, docs, err := s.indexer().SearchModels(ctx, query, from, size)
	if err != nil {
		if errors.Is(err, search.ErrUnavailable) {
			return nil, fmt.Errorf("search: %w", ErrUnavailable)
		}
		logging.FromContext(ctx).Error("search_models_error", "status", 500, "reason", "search failed", "error", err)
		return nil, err
	}
	return &SearchResult{Total: total, Hits: docs}, nil
}
