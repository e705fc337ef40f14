package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordgrove/wordgrove-api/internal/service/engine"
)

func TestCommandEnvelopeRouting(t *testing.T) {
	vocabID := uuid.New()

	tests := []struct {
		name    string
		command string
		payload any
		check   func(t *testing.T, cmd engine.Command)
	}{
		{
			name:    "rate word",
			command: "rate_word",
			payload: map[string]any{"vocab_id": vocabID, "rating": "known"},
			check: func(t *testing.T, cmd engine.Command) {
				c, ok := cmd.(engine.RateWordCommand)
				require.True(t, ok)
				assert.Equal(t, vocabID, c.VocabID)
				assert.Equal(t, engine.RatingKnown, c.Rating)
			},
		},
		{
			name:    "toggle trace",
			command: "toggle_trace",
			payload: map[string]any{"vocab_id": vocabID, "traced": true},
			check: func(t *testing.T, cmd engine.Command) {
				c, ok := cmd.(engine.ToggleTraceCommand)
				require.True(t, ok)
				assert.True(t, c.Traced)
			},
		},
		{
			name:    "unlock noise word",
			command: "unlock_noise_word",
			payload: map[string]any{"vocab_id": vocabID},
			check: func(t *testing.T, cmd engine.Command) {
				_, ok := cmd.(engine.UnlockNoiseWordCommand)
				require.True(t, ok)
			},
		},
		{
			name:    "scan tokens",
			command: "scan_tokens",
			payload: ScanRequest{
				Tokens:   []string{"the", "garden"},
				Language: "en",
				Page:     PageContextPayload{URL: "https://example.com"},
			},
			check: func(t *testing.T, cmd engine.Command) {
				c, ok := cmd.(engine.ScanTokensCommand)
				require.True(t, ok)
				assert.Equal(t, []string{"the", "garden"}, c.Tokens)
			},
		},
		{
			name:    "sync noise words",
			command: "sync_noise_words",
			payload: NoiseSyncRequest{Language: "en", ManualAdd: []string{"the"}, DryRun: true},
			check: func(t *testing.T, cmd engine.Command) {
				c, ok := cmd.(engine.SyncNoiseWordsCommand)
				require.True(t, ok)
				assert.True(t, c.DryRun)
				assert.Equal(t, []string{"the"}, c.Config.ManualAdd)
			},
		},
		{
			name:    "draw review cards defaults to shuffle",
			command: "draw_review_cards",
			payload: DrawCardsRequest{Count: 5},
			check: func(t *testing.T, cmd engine.Command) {
				c, ok := cmd.(engine.DrawReviewCardsCommand)
				require.True(t, ok)
				assert.Equal(t, 5, c.Count)
				assert.Equal(t, "shuffle", string(c.Mode))
			},
		},
		{
			name:    "cleanup stale",
			command: "cleanup_stale",
			payload: CleanupRequest{AgeDays: 30, MinCount: 3},
			check: func(t *testing.T, cmd engine.Command) {
				c, ok := cmd.(engine.CleanupStaleCommand)
				require.True(t, ok)
				assert.Equal(t, 30, c.AgeDays)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var gotCmd engine.Command
			eng := &mockEngine{
				dispatchFn: func(ctx context.Context, cmd engine.Command) (any, error) {
					gotCmd = cmd
					return map[string]string{"ok": "true"}, nil
				},
			}
			handler := NewCommandHandler(eng)

			payload, err := json.Marshal(tc.payload)
			require.NoError(t, err)

			rr := postJSON(t, handler.Execute, "/api/commands", CommandRequest{
				Command: tc.command,
				Payload: payload,
			})

			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			tc.check(t, gotCmd)
		})
	}
}

func TestCommandEnvelopeRejectsUnknownCommand(t *testing.T) {
	handler := NewCommandHandler(&mockEngine{})

	rr := postJSON(t, handler.Execute, "/api/commands", CommandRequest{
		Command: "defragment",
		Payload: json.RawMessage(`{}`),
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCommandEnvelopeRequiresPayload(t *testing.T) {
	handler := NewCommandHandler(&mockEngine{})

	rr := postJSON(t, handler.Execute, "/api/commands", CommandRequest{Command: "rate_word"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
