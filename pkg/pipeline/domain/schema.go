package domain

// SchemaKind distinguishes an observed (no declared fields, always
// compatible) contract from an explicit (fixed field set) contract.
type SchemaKind string

const (
	SchemaObserved SchemaKind = "observed"
	SchemaExplicit SchemaKind = "explicit"
)

// FieldSpec describes one field of an explicit schema contract.
type FieldSpec struct {
	Name     string
	Type     string // e.g. "string", "int", "float", "bool", "object", "any"
	Required bool
}

// SchemaContract describes the shape of rows flowing along an edge.
// Observed contracts accept any row shape; explicit contracts declare a
// fixed field set and must be structurally compatible with neighboring
// contracts.
type SchemaContract struct {
	Kind   SchemaKind
	Fields []FieldSpec
}

// Observed returns the always-compatible observed contract.
func Observed() SchemaContract {
	return SchemaContract{Kind: SchemaObserved}
}

// Explicit returns an explicit contract with the given fields.
func Explicit(fields ...FieldSpec) SchemaContract {
	return SchemaContract{Kind: SchemaExplicit, Fields: fields}
}

// fieldByName returns the field with the given name, if any.
func (s SchemaContract) fieldByName(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// CompatibleWith reports whether a producer contract (s) satisfies a
// consumer contract (other). Two observed contracts are always
// compatible. An observed producer satisfies an explicit consumer only if
// the consumer has no required fields (conservatively: never, per the
// coalesce/multi-inbound invariant, an observed branch is an error; here
// we still report the structural truth so non-coalesce callers can use a
// narrower check if needed). Two explicit contracts are compatible when
// every field present in both sides agrees in type, and every field
// required by the consumer is present and required (or present) in the
// producer.
func (s SchemaContract) CompatibleWith(other SchemaContract) bool {
	if s.Kind == SchemaObserved && other.Kind == SchemaObserved {
		return true
	}
	if s.Kind == SchemaObserved || other.Kind == SchemaObserved {
		// An observed side can produce/accept anything; treat as
		// compatible at the pairwise level. Callers enforcing the
		// "observed and explicit must not be mixed" invariant at
		// coalesce/multi-inbound nodes do that check separately via
		// MixesObservedAndExplicit.
		return true
	}
	for _, consumerField := range other.Fields {
		producerField, ok := s.fieldByName(consumerField.Name)
		if !ok {
			if consumerField.Required {
				return false
			}
			continue
		}
		if producerField.Type != consumerField.Type && producerField.Type != "any" && consumerField.Type != "any" {
			return false
		}
	}
	return true
}

// MixesObservedAndExplicit reports whether contracts contains at least
// one observed and at least one explicit contract — the graph-validation
// error condition for coalesces and multi-inbound nodes.
func MixesObservedAndExplicit(contracts []SchemaContract) bool {
	sawObserved, sawExplicit := false, false
	for _, c := range contracts {
		switch c.Kind {
		case SchemaObserved:
			sawObserved = true
		case SchemaExplicit:
			sawExplicit = true
		}
	}
	return sawObserved && sawExplicit
}

// MergeUnion computes the union contract for a set of branch contracts
// under the "union" coalesce merge strategy: the union of fields, later
// branches overriding earlier ones, failing if two branches declare the
// same field name with conflicting types.
func MergeUnion(branches []SchemaContract) (SchemaContract, error) {
	fieldTypes := map[string]string{}
	order := make([]string, 0)
	for _, branch := range branches {
		for _, f := range branch.Fields {
			if existing, ok := fieldTypes[f.Name]; ok && existing != f.Type && existing != "any" && f.Type != "any" {
				return SchemaContract{}, &ContractMergeError{Field: f.Name, TypeA: existing, TypeB: f.Type}
			}
			if _, ok := fieldTypes[f.Name]; !ok {
				order = append(order, f.Name)
			}
			fieldTypes[f.Name] = f.Type
		}
	}
	fields := make([]FieldSpec, 0, len(order))
	for _, name := range order {
		fields = append(fields, FieldSpec{Name: name, Type: fieldTypes[name], Required: false})
	}
	return Explicit(fields...), nil
}

// MergeNested computes the fixed contract for the "nested" coalesce merge
// strategy: one object-typed field per declared branch name, required
// only for branches that are guaranteed to arrive (require_all policy).
func MergeNested(branchNames []string, requiredBranches map[string]bool) SchemaContract {
	fields := make([]FieldSpec, 0, len(branchNames))
	for _, name := range branchNames {
		fields = append(fields, FieldSpec{Name: name, Type: "object", Required: requiredBranches[name]})
	}
	return Explicit(fields...)
}

// ContractMergeError is returned when two branches declare conflicting
// types for the same field under a union merge. It is always a fatal
// OrchestrationInvariantError at the orchestrator layer.
type ContractMergeError struct {
	Field string
	TypeA string
	TypeB string
}

func (e *ContractMergeError) Error() string {
	return "contract merge: field " + e.Field + " has conflicting types " + e.TypeA + " and " + e.TypeB
}
