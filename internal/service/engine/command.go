package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Command is the closed union of engine operations. Each operation is one
// struct; the unexported marker method seals the set so Dispatch's type
// switch covers every member by construction.
type Command interface {
	isCommand()
}

// RecordEncounterCommand records or deduplicates one encounter.
type RecordEncounterCommand struct {
	RecordEncounterInput
}

// ScanTokensCommand feeds one page through aggregation and promotion.
type ScanTokensCommand struct {
	ScanInput
}

// RateWordCommand applies a user rating to an entry.
type RateWordCommand struct {
	VocabID uuid.UUID
	Rating  Rating
}

// ToggleTraceCommand flips an entry's actively-tracked flag.
type ToggleTraceCommand struct {
	VocabID uuid.UUID
	Traced  bool
}

// UnlockNoiseWordCommand releases one noise lock.
type UnlockNoiseWordCommand struct {
	VocabID uuid.UUID
}

// SyncNoiseWordsCommand reconciles the noise target set.
type SyncNoiseWordsCommand struct {
	Config NoiseConfig
	Force  bool
	DryRun bool
}

// DrawReviewCardsCommand draws a review batch.
type DrawReviewCardsCommand struct {
	DrawInput
}

// CleanupStaleCommand sweeps stale evidence.
type CleanupStaleCommand struct {
	CleanupInput
}

func (RecordEncounterCommand) isCommand() {}
func (ScanTokensCommand) isCommand()      {}
func (RateWordCommand) isCommand()        {}
func (ToggleTraceCommand) isCommand()     {}
func (UnlockNoiseWordCommand) isCommand() {}
func (SyncNoiseWordsCommand) isCommand()  {}
func (DrawReviewCardsCommand) isCommand() {}
func (CleanupStaleCommand) isCommand()    {}

// Dispatch routes a command to its operation. The switch is exhaustive over
// the sealed union; the fallthrough arm is unreachable unless a command
// type is added without a matching arm here.
func (s *Service) Dispatch(ctx context.Context, cmd Command) (any, error) {
	switch c := cmd.(type) {
	case RecordEncounterCommand:
		return s.RecordEncounter(ctx, c.RecordEncounterInput)
	case ScanTokensCommand:
		return s.ScanTokens(ctx, c.ScanInput)
	case RateWordCommand:
		return s.RateWord(ctx, c.VocabID, c.Rating)
	case ToggleTraceCommand:
		return s.ToggleTrace(ctx, c.VocabID, c.Traced)
	case UnlockNoiseWordCommand:
		return s.UnlockNoiseWord(ctx, c.VocabID)
	case SyncNoiseWordsCommand:
		return s.SyncNoiseWords(ctx, c.Config, c.Force, c.DryRun)
	case DrawReviewCardsCommand:
		return s.DrawReviewCards(ctx, c.DrawInput)
	case CleanupStaleCommand:
		return s.CleanupStale(ctx, c.CleanupInput)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}
}
