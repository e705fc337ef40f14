package engine

import (
	"context"
	"database/sql"
	"log/slog"
	"strconv"
	"time"

	"github.com/wordgrove/wordgrove-api/internal/config"
	"github.com/wordgrove/wordgrove-api/internal/domain"
	"github.com/wordgrove/wordgrove-api/internal/platform/logger"
	"github.com/wordgrove/wordgrove-api/internal/store"
)

// Dictionary answers frequency-rank lookups for the aggregation gate and
// candidate validation. The boolean is false for words outside the list.
type Dictionary interface {
	Rank(ctx context.Context, lemma, language string) (int, bool, error)
}

// Wordbanks provides access to the loaded curated word lists.
type Wordbanks interface {
	// Get returns the wordbank with the given ID, or an error if none is
	// loaded under that ID.
	Get(id string) (*domain.Wordbank, error)

	// Lookup reports whether any loaded wordbank for the language lists the
	// normalized lemma, returning the matching wordbank ID.
	Lookup(language, lemma string) (string, bool)
}

// TxRunner executes a function inside a database transaction. Operations
// spanning two tables (promotion, trace toggles with recompute) go through
// it so a crash can never leave a half-applied write.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error
}

// Stores bundles the four persistence interfaces the engine operates on.
type Stores struct {
	Encounters store.EncounterStore
	LemmaStats store.LemmaStatStore
	Vocabulary store.VocabularyStore
	Settings   store.SettingsStore
}

// valid reports whether every store is present.
func (s Stores) valid() bool {
	return s.Encounters != nil && s.LemmaStats != nil && s.Vocabulary != nil && s.Settings != nil
}

// withTx rebinds every store to the given transaction. A nil tx returns the
// bundle unchanged, which lets test fakes run the same code paths without a
// database.
func (s Stores) withTx(tx *sql.Tx) Stores {
	if tx == nil {
		return s
	}
	return Stores{
		Encounters: s.Encounters.WithTx(tx),
		LemmaStats: s.LemmaStats.WithTx(tx),
		Vocabulary: s.Vocabulary.WithTx(tx),
		Settings:   s.Settings.WithTx(tx),
	}
}

// Service is the engine core. All exported methods are safe for concurrent
// use; read-modify-write sequences on a lemma key are serialized through a
// per-key mutex on top of the store's transactional guarantees.
type Service struct {
	stores    Stores
	tx        TxRunner
	dict      Dictionary // nil disables rank lookups
	wordbanks Wordbanks
	defaults  config.EngineConfig
	logger    *slog.Logger
	lemmaMu   *keyMutex

	// now is a clock seam for deterministic tests.
	now func() time.Time
}

// NewService constructs the engine. dict may be nil (no dictionary
// deployed); every token then needs wordbank membership to pass the
// aggregation gate. wordbanks must be non-nil (an empty library is fine).
func NewService(
	stores Stores,
	tx TxRunner,
	dict Dictionary,
	wordbanks Wordbanks,
	defaults config.EngineConfig,
	log *slog.Logger,
) (*Service, error) {
	if !stores.valid() {
		return nil, ErrNilStore
	}
	if tx == nil {
		return nil, ErrNilTxRunner
	}
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		stores:    stores,
		tx:        tx,
		dict:      dict,
		wordbanks: wordbanks,
		defaults:  defaults,
		logger:    log.With(slog.String("component", "engine")),
		lemmaMu:   newKeyMutex(),
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// settings are the engine thresholds in effect for one operation: config
// defaults overlaid with any overrides stored in the settings table.
type settings struct {
	PromotionMinCount        int
	PromotionMinPages        int
	EnvironmentRankThreshold int
	AutoTracePoolSize        int
	AutoTraceMinEncounters   int
	AutoTraceEnabled         bool
}

// resolveSettings reads the settings table and overlays stored overrides on
// the config defaults. Malformed stored values are logged and ignored so a
// bad override can never take the engine down.
func (s *Service) resolveSettings(ctx context.Context) settings {
	log := logger.FromContextOrDefault(ctx, s.logger)

	out := settings{
		PromotionMinCount:        s.defaults.PromotionMinCount,
		PromotionMinPages:        s.defaults.PromotionMinPages,
		EnvironmentRankThreshold: s.defaults.EnvironmentRankThreshold,
		AutoTracePoolSize:        s.defaults.AutoTracePoolSize,
		AutoTraceMinEncounters:   s.defaults.AutoTraceMinEncounters,
		AutoTraceEnabled:         s.defaults.AutoTraceEnabled,
	}

	stored, err := s.stores.Settings.GetAll(ctx)
	if err != nil {
		log.Warn("failed to read settings overrides, using defaults",
			slog.String("error", err.Error()))
		return out
	}

	overlayInt(log, stored, store.SettingPromotionMinCount, &out.PromotionMinCount)
	overlayInt(log, stored, store.SettingPromotionMinPages, &out.PromotionMinPages)
	overlayInt(log, stored, store.SettingEnvironmentRankThreshold, &out.EnvironmentRankThreshold)
	overlayInt(log, stored, store.SettingAutoTracePoolSize, &out.AutoTracePoolSize)
	overlayInt(log, stored, store.SettingAutoTraceMinEncounters, &out.AutoTraceMinEncounters)
	overlayBool(log, stored, store.SettingAutoTraceEnabled, &out.AutoTraceEnabled)

	return out
}

func overlayInt(log *slog.Logger, stored map[string]string, key string, dst *int) {
	raw, ok := stored[key]
	if !ok {
		return
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn("ignoring malformed settings override",
			slog.String("key", key),
			slog.String("value", raw))
		return
	}
	*dst = v
}

func overlayBool(log *slog.Logger, stored map[string]string, key string, dst *bool) {
	raw, ok := stored[key]
	if !ok {
		return
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Warn("ignoring malformed settings override",
			slog.String("key", key),
			slog.String("value", raw))
		return
	}
	*dst = v
}

// lemmaKey is the serialization key for per-lemma read-modify-write
// sequences.
func lemmaKey(lemma, language string) string {
	return language + ":" + lemma
}
