package jetschema

// Severity expresses how strictly a streaming condition is treated.
type Severity int

const (
	Ignore Severity = iota
	Reject
)

// ParseOpt bundles parsing options. The zero value matches the engine's
// documented behavior: full validation, no duplicate-key rejection, no depth
// or size caps.
type ParseOpt struct {
	// SkipValidation parses and materializes the value without applying any
	// schema constraints. Types are still produced faithfully; only syntax
	// errors are possible.
	SkipValidation bool

	// OnDuplicateKey set to Reject fails the parse when an object repeats a
	// key. Ignore keeps the last occurrence, silently.
	OnDuplicateKey Severity

	// MaxDepth caps container nesting; zero disables the check.
	MaxDepth int

	// MaxBytes caps consumed input bytes; zero disables the check. Only
	// enforced on sources that report byte offsets.
	MaxBytes int64
}
