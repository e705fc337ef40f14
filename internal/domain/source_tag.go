package domain

import "errors"

// SourceTag identifies the channel that produced an encounter.
type SourceTag string

// Possible encounter source tags.
const (
	SourcePageScan       SourceTag = "page-scan"
	SourceDictionary     SourceTag = "dictionary-lookup"
	SourceExplicitTrace  SourceTag = "explicit-trace"
	SourceManualEntry    SourceTag = "manual-entry"
	SourceBulkImport     SourceTag = "bulk-import"
	SourceWordbankSeed   SourceTag = "wordbank-seed"
	SourceRatingKnown    SourceTag = "rating-known"
	SourceRatingFamiliar SourceTag = "rating-familiar"
	SourceRatingUnknown  SourceTag = "rating-unknown"
)

// ErrInvalidSourceTag is returned when a source tag is not one of the
// recognized channels.
var ErrInvalidSourceTag = errors.New("invalid encounter source tag")

// ValidSourceTag reports whether tag is one of the recognized channels.
func ValidSourceTag(tag SourceTag) bool {
	switch tag {
	case SourcePageScan,
		SourceDictionary,
		SourceExplicitTrace,
		SourceManualEntry,
		SourceBulkImport,
		SourceWordbankSeed,
		SourceRatingKnown,
		SourceRatingFamiliar,
		SourceRatingUnknown:
		return true
	default:
		return false
	}
}

// IsRating reports whether tag is one of the rating-* channels.
func (t SourceTag) IsRating() bool {
	return t == SourceRatingKnown || t == SourceRatingFamiliar || t == SourceRatingUnknown
}
