package model

import "strings"

// Method is one of the four sync verbs.
type Method string

const (
	MethodCreate Method = "create"
	MethodRead   Method = "read"
	MethodUpdate Method = "update"
	MethodDelete Method = "delete"
)

// ParseMethod normalizes s into a Method. It reports false for anything
// other than the four verbs.
func ParseMethod(s string) (Method, bool) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case MethodCreate, MethodRead, MethodUpdate, MethodDelete:
		return m, true
	default:
		return m, false
	}
}
