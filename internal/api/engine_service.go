package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/wordgrove/wordgrove-api/internal/domain"
	"github.com/wordgrove/wordgrove-api/internal/service/engine"
	"github.com/wordgrove/wordgrove-api/internal/store"
)

// EngineService is the slice of the vocabulary engine the HTTP handlers
// depend on. *engine.Service satisfies it; tests substitute mocks.
type EngineService interface {
	RecordEncounter(ctx context.Context, in engine.RecordEncounterInput) (*engine.RecordEncounterResult, error)
	DeleteEncounter(ctx context.Context, id uuid.UUID) error

	ScanTokens(ctx context.Context, in engine.ScanInput) (*engine.ScanResult, error)

	AddVocabulary(ctx context.Context, in engine.AddVocabularyInput) (*domain.VocabularyEntry, error)
	GetVocabulary(ctx context.Context, id uuid.UUID) (*domain.VocabularyEntry, error)
	ListVocabulary(ctx context.Context, filter store.ListVocabularyFilter) ([]*domain.VocabularyEntry, error)
	DeleteVocabulary(ctx context.Context, id uuid.UUID) error
	RateWord(ctx context.Context, vocabID uuid.UUID, rating engine.Rating) (*engine.RateResult, error)
	ToggleTrace(ctx context.Context, vocabID uuid.UUID, traced bool) (*engine.ToggleTraceResult, error)
	UnlockNoiseWord(ctx context.Context, vocabID uuid.UUID) (*domain.VocabularyEntry, error)

	SyncNoiseWords(ctx context.Context, cfg engine.NoiseConfig, force, dryRun bool) (*engine.NoiseSyncResult, error)
	DrawReviewCards(ctx context.Context, in engine.DrawInput) ([]engine.Card, error)
	CleanupStale(ctx context.Context, in engine.CleanupInput) (*engine.CleanupResult, error)
	SeedWordbank(ctx context.Context, wordbankID string) (*engine.SeedResult, error)

	Dispatch(ctx context.Context, cmd engine.Command) (any, error)
}

// pageFromPayload converts the wire page context into its domain form.
func pageFromPayload(p PageContextPayload) domain.PageContext {
	return domain.PageContext{
		URL:      p.URL,
		Host:     p.Host,
		Title:    p.Title,
		Sentence: p.Sentence,
	}
}
