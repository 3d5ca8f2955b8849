package session

// Keys under which the state fields are persisted.
const (
	KeyCurrentText   = "currentText"
	KeyOriginalInput = "originalInput"
	KeyIsDecoded     = "isDecoded"
	KeyHasResult     = "hasResult"
)

// Keys lists every persisted key in a stable order.
func Keys() []string {
	return []string{KeyCurrentText, KeyOriginalInput, KeyIsDecoded, KeyHasResult}
}

// State is the flat record shared between the editor and durable storage.
type State struct {
	CurrentText   string
	OriginalInput string
	IsDecoded     bool
	HasResult     bool
}

// Partial holds an optional value for each State field. Nil fields are left
// untouched by a merge.
type Partial struct {
	CurrentText   *string
	OriginalInput *string
	IsDecoded     *bool
	HasResult     *bool
}

// Text returns a pointer to s for use in a Partial.
func Text(s string) *string { return &s }

// Flag returns a pointer to b for use in a Partial.
func Flag(b bool) *bool { return &b }

// IsZero reports whether the partial carries no fields.
func (p Partial) IsZero() bool {
	return p.CurrentText == nil && p.OriginalInput == nil && p.IsDecoded == nil && p.HasResult == nil
}

// Values converts the partial into the key/value form written to a Backend.
func (p Partial) Values() map[string]any {
	values := make(map[string]any, 4)
	if p.CurrentText != nil {
		values[KeyCurrentText] = *p.CurrentText
	}
	if p.OriginalInput != nil {
		values[KeyOriginalInput] = *p.OriginalInput
	}
	if p.IsDecoded != nil {
		values[KeyIsDecoded] = *p.IsDecoded
	}
	if p.HasResult != nil {
		values[KeyHasResult] = *p.HasResult
	}
	return values
}

// Merge returns p with every field set in q overriding it.
func (p Partial) Merge(q Partial) Partial {
	if q.CurrentText != nil {
		p.CurrentText = q.CurrentText
	}
	if q.OriginalInput != nil {
		p.OriginalInput = q.OriginalInput
	}
	if q.IsDecoded != nil {
		p.IsDecoded = q.IsDecoded
	}
	if q.HasResult != nil {
		p.HasResult = q.HasResult
	}
	return p
}

// Apply merges the partial into s and returns the result.
func (s State) Apply(p Partial) State {
	if p.CurrentText != nil {
		s.CurrentText = *p.CurrentText
	}
	if p.OriginalInput != nil {
		s.OriginalInput = *p.OriginalInput
	}
	if p.IsDecoded != nil {
		s.IsDecoded = *p.IsDecoded
	}
	if p.HasResult != nil {
		s.HasResult = *p.HasResult
	}
	return s
}

// partialFromValues picks the well-typed entries out of backend values.
// Unknown keys and mistyped values are ignored.
func partialFromValues(values map[string]any) Partial {
	var p Partial
	if v, ok := values[KeyCurrentText].(string); ok {
		p.CurrentText = Text(v)
	}
	if v, ok := values[KeyOriginalInput].(string); ok {
		p.OriginalInput = Text(v)
	}
	if v, ok := values[KeyIsDecoded].(bool); ok {
		p.IsDecoded = Flag(v)
	}
	if v, ok := values[KeyHasResult].(bool); ok {
		p.HasResult = Flag(v)
	}
	return p
}

// normalize enforces IsDecoded ⇒ HasResult. When the merged state would
// violate it, IsDecoded is forced off and the correction is added to the
// partial so durable storage receives it too.
func normalize(s State, p Partial) (State, Partial) {
	if s.IsDecoded && !s.HasResult {
		s.IsDecoded = false
		p.IsDecoded = Flag(false)
	}
	return s, p
}
