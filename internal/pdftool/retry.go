package pdftool

// RetryAction identifies which fix was applied (or none).
type RetryAction int

const (
	RetryNone              RetryAction = iota
	RetryLegacyInterpreter             // Fall back to the pre-9.56 PDF interpreter.
	RetrySkipFontEmbedding             // Stop embedding fonts that cannot be loaded.
)

func (a RetryAction) String() string {
	switch a {
	case RetryLegacyInterpreter:
		return "legacy interpreter"
	case RetrySkipFontEmbedding:
		return "skip font embedding"
	default:
		return "none"
	}
}

const maxAttempts = 3

// RetryState tracks which fallback fixes have been applied across
// Ghostscript attempts for a single file.
type RetryState struct {
	Attempt     int
	MaxAttempts int

	LegacyInterpreter bool
	EmbedFonts        bool
}

// NewRetryState returns a state with no fixes applied.
func NewRetryState() *RetryState {
	return &RetryState{
		MaxAttempts: maxAttempts,
		EmbedFonts:  true,
	}
}

// Advance inspects stderr from a failed run, finds the first matching error
// pattern whose fix has not yet been applied, applies that fix, and returns
// the action taken. Returns RetryNone when no fixable pattern matches, the
// file is encrypted or damaged, or the attempt limit is reached.
//
// Pattern evaluation order: interpreter then fonts.
func (s *RetryState) Advance(stderr string) RetryAction {
	s.Attempt++
	if s.Attempt >= s.MaxAttempts {
		return RetryNone
	}
	if MatchEncrypted(stderr) || MatchDamaged(stderr) {
		return RetryNone
	}

	if !s.LegacyInterpreter && MatchInterpreterIssue(stderr) {
		s.LegacyInterpreter = true
		return RetryLegacyInterpreter
	}
	if s.EmbedFonts && MatchFontIssue(stderr) {
		s.EmbedFonts = false
		return RetrySkipFontEmbedding
	}
	return RetryNone
}
