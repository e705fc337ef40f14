// Package review implements card selection for review sessions: a composite
// priority over due-ness, difficulty, trace urgency and staleness, with a
// deterministic top-N mode and a seedable weighted-shuffle mode.
package review
