package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/wordgrove/wordgrove-api/internal/domain"
	"github.com/wordgrove/wordgrove-api/internal/service/engine"
	"github.com/wordgrove/wordgrove-api/internal/store"
)

// mockEngine is a function-field mock of the EngineService interface. Only
// the fields a test sets are expected to be called.
type mockEngine struct {
	recordEncounterFn func(ctx context.Context, in engine.RecordEncounterInput) (*engine.RecordEncounterResult, error)
	deleteEncounterFn func(ctx context.Context, id uuid.UUID) error
	scanTokensFn      func(ctx context.Context, in engine.ScanInput) (*engine.ScanResult, error)
	addVocabularyFn   func(ctx context.Context, in engine.AddVocabularyInput) (*domain.VocabularyEntry, error)
	getVocabularyFn   func(ctx context.Context, id uuid.UUID) (*domain.VocabularyEntry, error)
	listVocabularyFn  func(ctx context.Context, filter store.ListVocabularyFilter) ([]*domain.VocabularyEntry, error)
	deleteVocabFn     func(ctx context.Context, id uuid.UUID) error
	rateWordFn        func(ctx context.Context, vocabID uuid.UUID, rating engine.Rating) (*engine.RateResult, error)
	toggleTraceFn     func(ctx context.Context, vocabID uuid.UUID, traced bool) (*engine.ToggleTraceResult, error)
	unlockNoiseFn     func(ctx context.Context, vocabID uuid.UUID) (*domain.VocabularyEntry, error)
	syncNoiseFn       func(ctx context.Context, cfg engine.NoiseConfig, force, dryRun bool) (*engine.NoiseSyncResult, error)
	drawCardsFn       func(ctx context.Context, in engine.DrawInput) ([]engine.Card, error)
	cleanupStaleFn    func(ctx context.Context, in engine.CleanupInput) (*engine.CleanupResult, error)
	seedWordbankFn    func(ctx context.Context, wordbankID string) (*engine.SeedResult, error)
	dispatchFn        func(ctx context.Context, cmd engine.Command) (any, error)
}

func (m *mockEngine) RecordEncounter(ctx context.Context, in engine.RecordEncounterInput) (*engine.RecordEncounterResult, error) {
	return m.recordEncounterFn(ctx, in)
}

func (m *mockEngine) DeleteEncounter(ctx context.Context, id uuid.UUID) error {
	return m.deleteEncounterFn(ctx, id)
}

func (m *mockEngine) ScanTokens(ctx context.Context, in engine.ScanInput) (*engine.ScanResult, error) {
	return m.scanTokensFn(ctx, in)
}

func (m *mockEngine) AddVocabulary(ctx context.Context, in engine.AddVocabularyInput) (*domain.VocabularyEntry, error) {
	return m.addVocabularyFn(ctx, in)
}

func (m *mockEngine) GetVocabulary(ctx context.Context, id uuid.UUID) (*domain.VocabularyEntry, error) {
	return m.getVocabularyFn(ctx, id)
}

func (m *mockEngine) ListVocabulary(ctx context.Context, filter store.ListVocabularyFilter) ([]*domain.VocabularyEntry, error) {
	return m.listVocabularyFn(ctx, filter)
}

func (m *mockEngine) DeleteVocabulary(ctx context.Context, id uuid.UUID) error {
	return m.deleteVocabFn(ctx, id)
}

func (m *mockEngine) RateWord(ctx context.Context, vocabID uuid.UUID, rating engine.Rating) (*engine.RateResult, error) {
	return m.rateWordFn(ctx, vocabID, rating)
}

func (m *mockEngine) ToggleTrace(ctx context.Context, vocabID uuid.UUID, traced bool) (*engine.ToggleTraceResult, error) {
	return m.toggleTraceFn(ctx, vocabID, traced)
}

func (m *mockEngine) UnlockNoiseWord(ctx context.Context, vocabID uuid.UUID) (*domain.VocabularyEntry, error) {
	return m.unlockNoiseFn(ctx, vocabID)
}

func (m *mockEngine) SyncNoiseWords(ctx context.Context, cfg engine.NoiseConfig, force, dryRun bool) (*engine.NoiseSyncResult, error) {
	return m.syncNoiseFn(ctx, cfg, force, dryRun)
}

func (m *mockEngine) DrawReviewCards(ctx context.Context, in engine.DrawInput) ([]engine.Card, error) {
	return m.drawCardsFn(ctx, in)
}

func (m *mockEngine) CleanupStale(ctx context.Context, in engine.CleanupInput) (*engine.CleanupResult, error) {
	return m.cleanupStaleFn(ctx, in)
}

func (m *mockEngine) SeedWordbank(ctx context.Context, wordbankID string) (*engine.SeedResult, error) {
	return m.seedWordbankFn(ctx, wordbankID)
}

func (m *mockEngine) Dispatch(ctx context.Context, cmd engine.Command) (any, error) {
	return m.dispatchFn(ctx, cmd)
}
