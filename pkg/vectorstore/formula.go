package vectorstore

// Formula is the tagged-variant expression tree for server-evaluated hybrid
// scoring (the "Formula Query" construct): semantic similarity combined with
// a per-type exponential time decay. Each concrete variant implements one
// private marker method, which closes the set to this file, and renders
// itself through its own Encode.
type Formula interface {
	formulaType() string
	Encode() map[string]any
}

// Const is a literal numeric value.
type Const float64

func (Const) formulaType() string { return "const" }

// Encode renders the literal.
func (c Const) Encode() map[string]any {
	return map[string]any{"constant": float64(c)}
}

// ScoreRef references the prefetch's own similarity score.
type ScoreRef struct{}

func (ScoreRef) formulaType() string { return "score" }

// Encode renders the $score reference.
func (ScoreRef) Encode() map[string]any {
	return map[string]any{"variable": "$score"}
}

// Sum adds every term.
type Sum []Formula

func (Sum) formulaType() string { return "sum" }

// Encode renders a sum expression.
func (s Sum) Encode() map[string]any {
	terms := make([]map[string]any, len(s))
	for i, f := range s {
		terms[i] = f.Encode()
	}
	return map[string]any{"sum": terms}
}

// Mult multiplies every term.
type Mult []Formula

func (Mult) formulaType() string { return "mult" }

// Encode renders a product expression.
func (m Mult) Encode() map[string]any {
	terms := make([]map[string]any, len(m))
	for i, f := range m {
		terms[i] = f.Encode()
	}
	return map[string]any{"mult": terms}
}

// ExpDecay applies exponential decay to a payload datetime field, relative
// to Target, with the given half-life expressed in seconds: it is sent as
// the scale, with midpoint 0.5, so the value is 0.5^(age/half-life).
// Target must be a concrete RFC3339 timestamp — Qdrant's DatetimeExpression
// has no "now" keyword, so the caller building the formula stamps the
// current time at query-build time.
type ExpDecay struct {
	Field     string
	HalfLifeS float64
	Target    string
}

func (ExpDecay) formulaType() string { return "exp_decay" }

// Encode renders the decay expression.
func (d ExpDecay) Encode() map[string]any {
	return map[string]any{
		"exp_decay": map[string]any{
			"x":      map[string]any{"datetime_key": d.Field},
			"target": map[string]any{"datetime": d.Target},
			"scale":    d.HalfLifeS,
			"midpoint": 0.5,
		},
	}
}

// FieldCond selects between two sub-formulas based on whether a payload
// field matches one of Values. Except flips the test to "field present and
// not in Values" using a match.except condition rather than a must_not
// negation — the catch-all decay branch for an unclaimed type uses this to
// exclude every type already claimed by a half-life-specific branch, while
// still excluding points whose type is absent altogether: a must_not over
// match.any is satisfied by an absent field (the inner match is false, so
// the negation holds), which would wrongly route untyped points into the
// catch-all; match.except is not satisfied by an absent field, so those
// points fall through to neither branch and keep only the semantic score.
type FieldCond struct {
	Field  string
	Values []string
	Except bool
	Then   Formula
	Else   Formula
}

func (FieldCond) formulaType() string { return "field_condition" }

// Encode renders the conditional expression.
func (c FieldCond) Encode() map[string]any {
	match := map[string]any{"any": c.Values}
	if c.Except {
		match = map[string]any{"except": c.Values}
	}
	filter := Filter{Must: []FieldCondition{{Key: c.Field, Match: match}}}
	return map[string]any{
		"condition": map[string]any{
			"filter": filter,
			"then":   c.Then.Encode(),
			"else":   c.Else.Encode(),
		},
	}
}
