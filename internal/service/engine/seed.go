package engine

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/wordgrove/wordgrove-api/internal/domain"
	"github.com/wordgrove/wordgrove-api/internal/platform/logger"
	"github.com/wordgrove/wordgrove-api/internal/store"
)

// SeedResult reports a wordbank import.
type SeedResult struct {
	WordbankID string `json:"wordbank_id"`
	Created    int    `json:"created"`
	Existing   int    `json:"existing"`
}

// SeedWordbank imports a loaded wordbank into the vocabulary: every listed
// word gets an entry (created at score zero if missing) and a wordbank-seed
// encounter. Words that already have a live entry are left as they are
// apart from the seed encounter folding into their history.
func (s *Service) SeedWordbank(ctx context.Context, wordbankID string) (*SeedResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	wb, err := s.wordbanks.Get(wordbankID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	result := &SeedResult{WordbankID: wb.ID}

	for _, lemma := range wb.Words {
		key := lemmaKey(lemma, wb.Language)
		s.lemmaMu.Lock(key)

		err := s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
			stores := s.stores.withTx(tx)

			entry, err := stores.Vocabulary.GetByLemma(ctx, lemma, wb.Language)
			switch {
			case errors.Is(err, store.ErrVocabNotFound):
				entry, err = domain.NewVocabularyEntry(lemma, wb.Language, "", domain.EntrySourceWordbank)
				if err != nil {
					return err
				}
				id := wb.ID
				entry.WordbankID = &id
				if err := stores.Vocabulary.Create(ctx, entry); err != nil {
					return err
				}
				result.Created++
			case err != nil:
				return err
			default:
				result.Existing++
			}

			enc, err := s.newEncounter(entry.ID, lemma, domain.SourceWordbankSeed, domain.PageContext{}, now)
			if err != nil {
				return err
			}
			if err := stores.Encounters.Create(ctx, enc); err != nil {
				return err
			}

			return s.recompute(ctx, stores, entry, now)
		})

		s.lemmaMu.Unlock(key)

		if err != nil {
			// One bad word must not abort the import.
			log.Warn("skipping wordbank word during seed",
				slog.String("lemma", lemma),
				slog.String("error", err.Error()))
		}
	}

	log.Info("wordbank seeded",
		slog.String("wordbank_id", wb.ID),
		slog.Int("created", result.Created),
		slog.Int("existing", result.Existing))
	return result, nil
}
