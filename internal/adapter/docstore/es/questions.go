package es

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"

	"github.com/chibbo-dev/ai-algorithm-api/internal/domain"
)

// QuestionStore implements domain.QuestionStore over an Elasticsearch
// index. Documents are written whole; the store is the source of truth for
// free-form Q&A threads.
type QuestionStore struct {
	client    *elasticsearch.TypedClient
	indexName string
}

func NewQuestionStore(ctx context.Context, config ClientConfig) (*QuestionStore, error) {
	client, err := newClient(config)
	if err != nil {
		return nil, fmt.Errorf("op=es.client: %w", err)
	}
	s := &QuestionStore{client: client, indexName: config.IndexName}
	if err := s.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("op=es.ensure_index: %w", err)
	}
	return s, nil
}

// Get loads one question document by id.
func (s *QuestionStore) Get(ctx domain.Context, id string) (domain.QuestionDoc, error) {
	res, err := s.client.Get(s.indexName, id).Do(ctx)
	if err != nil {
		return domain.QuestionDoc{}, fmt.Errorf("op=question.get: %w", err)
	}
	if !res.Found {
		return domain.QuestionDoc{}, fmt.Errorf("op=question.get id=%s: %w", id, domain.ErrNotFound)
	}
	var doc domain.QuestionDoc
	if err := json.Unmarshal(res.Source_, &doc); err != nil {
		return domain.QuestionDoc{}, fmt.Errorf("op=question.get decode: %w", err)
	}
	doc.ID = id
	return doc, nil
}

// AttachAIAnswer stores answer under the "ai" key of the document's answer
// map and bumps updated_at. Read-modify-write; the ai answer is generated
// once per question so concurrent writers are not a concern.
func (s *QuestionStore) AttachAIAnswer(ctx domain.Context, id, answer string) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if doc.Answers == nil {
		doc.Answers = make(map[string]string)
	}
	doc.Answers["ai"] = answer
	doc.UpdatedAt = time.Now().UTC()

	res, err := s.client.Index(s.indexName).Id(id).Document(doc).Do(ctx)
	if err != nil {
		return fmt.Errorf("op=question.attach_answer: %w", err)
	}
	slog.Info("ai answer attached", slog.String("id", id), slog.String("result", res.Result.Name))
	return nil
}

// Save writes a whole question document, generating no id: callers own ids.
func (s *QuestionStore) Save(ctx domain.Context, doc domain.QuestionDoc) error {
	if doc.ID == "" {
		return fmt.Errorf("op=question.save: %w: empty id", domain.ErrInvalidArgument)
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	doc.UpdatedAt = time.Now().UTC()
	if _, err := s.client.Index(s.indexName).Id(doc.ID).Document(doc).Do(ctx); err != nil {
		return fmt.Errorf("op=question.save: %w", err)
	}
	return nil
}

// Healthy reports whether the cluster answers a ping.
func (s *QuestionStore) Healthy(ctx context.Context) error {
	ok, err := s.client.Ping().Do(ctx)
	if err != nil {
		return fmt.Errorf("op=es.ping: %w", err)
	}
	if !ok {
		return fmt.Errorf("op=es.ping: cluster not reachable")
	}
	return nil
}

// EnsureIndex creates the question index with its mapping when missing.
func (s *QuestionStore) EnsureIndex(ctx context.Context) error {
	exists, err := s.client.Indices.Exists(s.indexName).Do(ctx)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		return nil
	}

	mappings := types.TypeMapping{
		Properties: map[string]types.Property{
			"id":            types.NewKeywordProperty(),
			"space_id":      types.NewLongNumberProperty(),
			"tech_class":    types.NewKeywordProperty(),
			"question_text": types.NewTextProperty(),
			"answers":       types.NewObjectProperty(),
			"created_at":    types.NewDateProperty(),
			"updated_at":    types.NewDateProperty(),
		},
	}
	res, err := s.client.Indices.Create(s.indexName).Mappings(&mappings).Do(ctx)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	if !res.Acknowledged {
		return fmt.Errorf("index creation not acknowledged")
	}
	slog.Info("question index created", slog.String("index", s.indexName))
	return nil
}
