package jetschema

import (
	"errors"
	"math"
	"strconv"
	"unicode/utf16"

	eng "github.com/okral/jetschema/internal/engine"
)

// Parser is the engine handle: a compiled schema plus the entry points that
// validate documents against it. A Parser is immutable and safe for
// concurrent use; each Parse call runs to completion on the calling
// goroutine with no shared state between calls.
type Parser struct {
	schema *Schema
}

// New compiles a schema description and returns the engine handle. The
// description must be a (possibly empty) map; a structurally malformed
// schema yields a *SchemaError.
func New(desc map[string]any) (*Parser, error) {
	if desc == nil {
		return nil, ErrNilDescription
	}
	s, err := Compile(desc)
	if err != nil {
		return nil, err
	}
	return &Parser{schema: s}, nil
}

// NewFromSchema wraps an already-compiled schema.
func NewFromSchema(s *Schema) *Parser {
	if s == nil {
		s = Permissive()
	}
	return &Parser{schema: s}
}

// Schema returns the compiled schema the parser validates against.
func (p *Parser) Schema() *Schema { return p.schema }

// Parse consumes a JSON text, producing the host value tree verified against
// the schema in a single streaming pass. A violation surfaces as soon as the
// offending node is reached; no partial value is returned. When options are
// given, the last one wins.
func (p *Parser) Parse(jsonText string, opts ...ParseOpt) (any, error) {
	return p.ParseBytes([]byte(jsonText), opts...)
}

// ParseBytes is Parse for a byte slice. The slice must remain valid for the
// duration of the call.
func (p *Parser) ParseBytes(data []byte, opts ...ParseOpt) (any, error) {
	var opt ParseOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	return ParseFrom(p.schema, JSONBytes(data), opt)
}

// ParseFrom drives the schema descent over an arbitrary token Source. A nil
// schema descends with the permissive default.
func ParseFrom(s *Schema, src Source, opt ParseOpt) (any, error) {
	if s == nil {
		s = Permissive()
	}
	inner := eng.WrapWithEnforcement(engineTokenSource(src), eng.EnforceOptions{
		RejectDuplicates: opt.OnDuplicateKey == Reject,
		MaxDepth:         opt.MaxDepth,
		MaxBytes:         opt.MaxBytes,
	})
	d := &decoder{src: inner, skip: opt.SkipValidation}
	tok, err := d.next()
	if err != nil {
		return nil, err
	}
	return d.value(tok, s)
}

// decoder threads the current schema down the token stream, materializing
// the host value while applying constraints node by node.
type decoder struct {
	src  eng.TokenSource
	skip bool
	path []string // unescaped pointer tokens to the current node
}

func (d *decoder) next() (eng.Token, error) {
	tok, err := d.src.NextToken()
	if err != nil {
		var v eng.Violation
		if errors.As(err, &v) {
			return eng.Token{}, &ParseError{
				Category: CategoryConstraint,
				Code:     v.Code,
				Path:     v.Path,
				Message:  v.Message,
				Offset:   v.Offset,
			}
		}
		// Anything the tokenizer rejects, including mid-document failures,
		// is upgraded to a syntax error.
		return eng.Token{}, d.syntaxError()
	}
	return tok, nil
}

func (d *decoder) value(tok eng.Token, s *Schema) (any, error) {
	switch tok.Kind {
	case eng.KindString:
		if err := d.checkType(s, TypeString, tok.Offset); err != nil {
			return nil, err
		}
		if !d.skip {
			if err := d.checkString(s, tok.String, tok.Offset); err != nil {
				return nil, err
			}
		}
		return tok.String, nil
	case eng.KindNumber:
		return d.number(tok, s)
	case eng.KindBool:
		if err := d.checkType(s, TypeBoolean, tok.Offset); err != nil {
			return nil, err
		}
		return tok.Bool, nil
	case eng.KindNull:
		if err := d.checkType(s, TypeNull, tok.Offset); err != nil {
			return nil, err
		}
		return nil, nil
	case eng.KindBeginObject:
		if err := d.checkType(s, TypeObject, tok.Offset); err != nil {
			return nil, err
		}
		return d.object(s, tok.Offset)
	case eng.KindBeginArray:
		if err := d.checkType(s, TypeArray, tok.Offset); err != nil {
			return nil, err
		}
		return d.array(s, tok.Offset)
	default:
		return nil, d.syntaxError()
	}
}

// number applies the try-integer-then-float discipline: a whole-number token
// materializes as int64, everything else as float64. When the schema demands
// Integer without Number, a fractional float is a type mismatch.
func (d *decoder) number(tok eng.Token, s *Schema) (any, error) {
	if !d.skip && !s.Types.Empty() && !s.Types.Has(TypeNumber) && !s.Types.Has(TypeInteger) {
		return nil, d.typeMismatch(tok.Offset)
	}
	if i, err := strconv.ParseInt(tok.Number, 10, 64); err == nil {
		if !d.skip {
			if err := d.checkNumber(s, float64(i), tok.Offset); err != nil {
				return nil, err
			}
		}
		return i, nil
	}
	f, err := strconv.ParseFloat(tok.Number, 64)
	if err != nil {
		return nil, d.syntaxError()
	}
	if !d.skip && !s.Types.Empty() && s.Types.Has(TypeInteger) && !s.Types.Has(TypeNumber) &&
		math.Floor(f) != f {
		return nil, d.typeMismatch(tok.Offset)
	}
	if !d.skip {
		if err := d.checkNumber(s, f, tok.Offset); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (d *decoder) object(s *Schema, off int64) (any, error) {
	obj := NewObject()
	// Raw field count: duplicate keys count every occurrence.
	count := 0
	for {
		tok, err := d.next()
		if err != nil {
			return nil, err
		}
		if tok.Kind == eng.KindEndObject {
			break
		}
		if tok.Kind != eng.KindKey {
			return nil, d.syntaxError()
		}
		key := tok.String
		count++

		child := permissive
		if !d.skip {
			if ps, ok := s.Properties[key]; ok {
				child = ps
			}
		}

		vt, err := d.next()
		if err != nil {
			return nil, err
		}
		d.path = append(d.path, key)
		v, err := d.value(vt, child)
		d.path = d.path[:len(d.path)-1]
		if err != nil {
			return nil, err
		}
		obj.Set(key, v)
	}

	if !d.skip {
		if count < s.MinProperties {
			return nil, d.constraintError(CodeTooFewProperties,
				"Object has fewer properties than minProperties", off)
		}
		if count > s.MaxProperties {
			return nil, d.constraintError(CodeTooManyProperties,
				"Object has more properties than maxProperties", off)
		}
		for _, name := range s.Required {
			if !obj.Has(name) {
				return nil, d.constraintError(CodeRequired,
					"Required property '"+name+"' is missing", off)
			}
		}
	}
	return obj, nil
}

func (d *decoder) array(s *Schema, off int64) (any, error) {
	items := permissive
	if !d.skip && s.Items.Single != nil {
		items = s.Items.Single
	}

	var seen map[string]struct{}
	if !d.skip && s.UniqueItems {
		seen = make(map[string]struct{})
	}

	arr := []any{}
	for {
		tok, err := d.next()
		if err != nil {
			return nil, err
		}
		if tok.Kind == eng.KindEndArray {
			break
		}
		d.path = append(d.path, strconv.Itoa(len(arr)))
		v, err := d.value(tok, items)
		d.path = d.path[:len(d.path)-1]
		if err != nil {
			return nil, err
		}
		if seen != nil {
			fp := string(appendFingerprint(nil, v))
			if _, dup := seen[fp]; dup {
				return nil, d.constraintError(CodeDuplicateItem,
					"Array contains duplicate items", off)
			}
			seen[fp] = struct{}{}
		}
		arr = append(arr, v)
	}

	if !d.skip {
		if len(arr) < s.MinItems {
			return nil, d.constraintError(CodeTooFewItems,
				"Array has fewer items than minItems", off)
		}
		if len(arr) > s.MaxItems {
			return nil, d.constraintError(CodeTooManyItems,
				"Array has more items than maxItems", off)
		}
	}
	return arr, nil
}

// ---- constraint evaluation ----

func (d *decoder) checkType(s *Schema, t Type, off int64) error {
	if d.skip || s.Types.Empty() || s.Types.Has(t) {
		return nil
	}
	return d.typeMismatch(off)
}

// checkString measures length in UTF-16 code units: supplementary-plane
// runes count as two.
func (d *decoder) checkString(s *Schema, v string, off int64) error {
	if s.MinLength == 0 && s.MaxLength == math.MaxInt {
		return nil
	}
	n := utf16Length(v)
	if n < s.MinLength {
		return d.constraintError(CodeTooShort, "String is shorter than minLength", off)
	}
	if n > s.MaxLength {
		return d.constraintError(CodeTooLong, "String is longer than maxLength", off)
	}
	return nil
}

func (d *decoder) checkNumber(s *Schema, v float64, off int64) error {
	if v < s.Minimum {
		return d.constraintError(CodeTooSmall, "Number is less than minimum", off)
	}
	if v > s.Maximum {
		return d.constraintError(CodeTooBig, "Number is greater than maximum", off)
	}
	if v <= s.ExclusiveMinimum {
		return d.constraintError(CodeTooSmall, "Number is not greater than exclusiveMinimum", off)
	}
	if v >= s.ExclusiveMaximum {
		return d.constraintError(CodeTooBig, "Number is not less than exclusiveMaximum", off)
	}
	if s.MultipleOf > 0 {
		// Exact floating-point comparison, no tolerance.
		q := v / s.MultipleOf
		if math.Floor(q) != q {
			return d.constraintError(CodeNotMultipleOf, "Number is not a multiple of multipleOf", off)
		}
	}
	return nil
}

func utf16Length(s string) int {
	n := 0
	for _, r := range s {
		if utf16.RuneLen(r) == 2 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// ---- error construction ----

func (d *decoder) pointer() string {
	if len(d.path) == 0 {
		return "/"
	}
	p := ""
	for _, tok := range d.path {
		p = eng.JoinPointer(p, tok)
	}
	return p
}

func (d *decoder) syntaxError() *ParseError {
	return &ParseError{
		Category: CategorySyntax,
		Code:     CodeParseError,
		Path:     d.pointer(),
		Message:  "Invalid JSON format",
		Offset:   d.src.Location(),
	}
}

func (d *decoder) typeMismatch(off int64) *ParseError {
	return &ParseError{
		Category: CategoryType,
		Code:     CodeInvalidType,
		Path:     d.pointer(),
		Message:  "Value does not match schema type",
		Offset:   off,
	}
}

func (d *decoder) constraintError(code, msg string, off int64) *ParseError {
	return &ParseError{
		Category: CategoryConstraint,
		Code:     code,
		Path:     d.pointer(),
		Message:  msg,
		Offset:   off,
	}
}
