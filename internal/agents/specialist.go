package agents

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rutopia/productobot/internal/domain"
	"github.com/rutopia/productobot/internal/llm"
	"github.com/rutopia/productobot/internal/retrieval"
)

const (
	specialistMaxTokens   = 1200
	specialistTemperature = 0.4
)

// Retriever is the slice of the retrieval pipeline the specialists use.
type Retriever interface {
	Retrieve(ctx context.Context, query string, tag domain.Tag) (retrieval.Answer, error)
}

// knowledgeSpecialist answers one domain by running the retrieval pipeline
// and phrasing the results with a single reasoning call.
type knowledgeSpecialist struct {
	name         string
	tag          domain.Tag
	noun         string // Spanish plural used in user-facing phrasing
	instructions string
	retriever    Retriever
	llm          llm.Client
	logger       *zap.Logger
}

// NewExperiencesSpecialist answers questions about experiences and
// activities from the catalog.
func NewExperiencesSpecialist(retriever Retriever, client llm.Client, logger *zap.Logger) Specialist {
	return &knowledgeSpecialist{
		name:         "get_experiences",
		tag:          domain.TagExperiences,
		noun:         "experiencias",
		instructions: experiencesInstructions,
		retriever:    retriever,
		llm:          client,
		logger:       logger,
	}
}

// NewLodgingSpecialist answers questions about accommodation options.
func NewLodgingSpecialist(retriever Retriever, client llm.Client, logger *zap.Logger) Specialist {
	return &knowledgeSpecialist{
		name:         "get_lodging",
		tag:          domain.TagLodging,
		noun:         "alojamientos",
		instructions: lodgingInstructions,
		retriever:    retriever,
		llm:          client,
		logger:       logger,
	}
}

// NewTransportationSpecialist answers questions about routes and transfers.
func NewTransportationSpecialist(retriever Retriever, client llm.Client, logger *zap.Logger) Specialist {
	return &knowledgeSpecialist{
		name:         "get_transportation",
		tag:          domain.TagTransportation,
		noun:         "transporte",
		instructions: transportationInstructions,
		retriever:    retriever,
		llm:          client,
		logger:       logger,
	}
}

func (s *knowledgeSpecialist) Name() string        { return s.name }
func (s *knowledgeSpecialist) Description() string { return s.tag.Description() }

// Answer runs one retrieval plus one reasoning call. A retrieval failure
// becomes a user-facing "could not search" message rather than an error:
// the batch should still synthesize whatever the other specialists found.
// A reasoning failure is an error, there is nothing presentable without it.
func (s *knowledgeSpecialist) Answer(ctx context.Context, query string, view *ContextView) (string, error) {
	answer, err := s.retriever.Retrieve(ctx, query, s.tag)
	if err != nil {
		s.logger.Error("Knowledge base search failed",
			zap.String("specialist", s.name),
			zap.Error(err),
		)
		return fmt.Sprintf("Lo siento, tuve un problema buscando %s para '%s'. Por favor, intenta de nuevo más tarde.", s.noun, query), nil
	}

	view.ProcessedQuery = query

	if answer.Empty() {
		return fmt.Sprintf("No encontré %s para esa búsqueda.", s.noun), nil
	}

	results := answer.Formatted
	if !answer.MatchType.Exact() {
		results = fmt.Sprintf("No encontré %s en la ubicación exacta pero te dejo algunas opciones cercanas: %s", s.noun, results)
	}

	resp, err := s.llm.Complete(ctx, llm.CompletionRequest{
		Query:        query,
		SystemPrompt: s.instructions,
		Context: map[string]interface{}{
			"knowledge_base_results": results,
			"conversation_history":   view.History,
			"user_name":              view.DisplayName,
		},
		Purpose:     s.name,
		MaxTokens:   specialistMaxTokens,
		Temperature: specialistTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("%s: phrase results: %w", s.name, err)
	}
	return resp.Response, nil
}
