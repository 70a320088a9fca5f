package registry

// MockContext builds a sample execution context for one node type from its
// variable schema. The test harness uses it when the caller supplies no
// context of their own; the runner never consults it.
func (r *Registry) MockContext(nodeType string) (map[string]any, error) {
	fields, err := r.OutputFields(nodeType)
	if err != nil {
		return nil, err
	}

	mock := make(map[string]any, len(fields))
	for _, field := range fields {
		mock[field.Key] = sampleValue(field.Type)
	}

	return mock, nil
}

func sampleValue(fieldType string) any {
	switch fieldType {
	case "number":
		return float64(42)
	case "boolean":
		return true
	case "object":
		return map[string]any{}
	case "array":
		return []any{}
	default:
		return "example"
	}
}
