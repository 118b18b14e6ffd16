package whatsapp

import (
	"strings"
)

// MetaEmptyParam replaces empty template values; Meta rejects empty parameters.
const MetaEmptyParam = "-"

// BuildParamsArray returns the values of vars ordered by order. Missing or
// empty values stay empty strings.
func BuildParamsArray(vars map[string]string, order []string) []string {
	out := make([]string, len(order))
	for i, name := range order {
		out[i] = vars[name]
	}
	return out
}

// BuildMetaParams is BuildParamsArray for Meta-bound templates: blank values
// become MetaEmptyParam.
func BuildMetaParams(vars map[string]string, order []string) []string {
	out := BuildParamsArray(vars, order)
	for i, v := range out {
		if strings.TrimSpace(v) == "" {
			out[i] = MetaEmptyParam
		}
	}
	return out
}

// ApplyVariables substitutes {name} tokens in content. Tokens without a
// matching variable are left untouched.
func ApplyVariables(content string, vars map[string]string) string {
	if content == "" || len(vars) == 0 {
		return content
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(content)
}

// IsValidWabaTemplateName rejects empty names and Meta's sample or test
// templates, which are never approved for production sends.
func IsValidWabaTemplateName(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	switch {
	case n == "":
		return false
	case n == "hello_world", n == "sample_template":
		return false
	case strings.HasPrefix(n, "test_"):
		return false
	}
	return true
}
