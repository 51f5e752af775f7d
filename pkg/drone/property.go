// SPDX-License-Identifier: MPL-2.0

package drone

import (
	"slices"
	"strings"
)

// Property names as used in Properties maps. The registry file spells them
// in kebab-case (load-path); see RegistryKey and PropertyKey.
const (
	PropDisabled             = "disabled"
	PropPath                 = "path"
	PropURL                  = "url"
	PropLoadPath             = "loadPath"
	PropInfoPath             = "infoPath"
	PropNoByteCompile        = "noByteCompile"
	PropNoMakeinfo           = "noMakeinfo"
	PropBuildStep            = "buildStep"
	PropRecursiveByteCompile = "recursiveByteCompile"
)

// multiValued lists the properties whose repeated registry lines accumulate
// into a list instead of replacing each other.
var multiValued = []string{
	PropLoadPath,
	PropInfoPath,
	PropNoByteCompile,
	PropNoMakeinfo,
	PropBuildStep,
}

type (
	// Value is a property value: either a single string or an ordered
	// list of strings.
	Value struct {
		items []string
		multi bool
	}

	// Properties maps camelCase property names to their values for one drone.
	Properties map[string]Value
)

// Single returns a single-valued Value.
func Single(s string) Value {
	return Value{items: []string{s}}
}

// Multi returns a list Value holding items in order.
func Multi(items ...string) Value {
	return Value{items: slices.Clone(items), multi: true}
}

// IsMultiValued reports whether prop accumulates repeated values.
func IsMultiValued(prop string) bool {
	return slices.Contains(multiValued, prop)
}

// IsList reports whether v is a list value.
func (v Value) IsList() bool { return v.multi }

// String returns the value, or for a list the last element.
func (v Value) String() string {
	if len(v.items) == 0 {
		return ""
	}
	return v.items[len(v.items)-1]
}

// List returns every element of the value.
func (v Value) List() []string {
	return slices.Clone(v.items)
}

// Append returns v extended by s, turning it into a list.
func (v Value) Append(s string) Value {
	return Value{items: append(slices.Clone(v.items), s), multi: true}
}

// Get returns the single value of prop.
func (p Properties) Get(prop string) (string, bool) {
	v, ok := p[prop]
	if !ok {
		return "", false
	}
	return v.String(), true
}

// List returns every value of prop, or nil when it is unset.
func (p Properties) List(prop string) []string {
	v, ok := p[prop]
	if !ok {
		return nil
	}
	return v.List()
}

// Bool interprets prop as a bool-as-string. Unset, empty, "false", "no",
// "nil", "off" and "0" are false; anything else is true.
func (p Properties) Bool(prop string) bool {
	s, ok := p.Get(prop)
	if !ok {
		return false
	}
	return Truthy(s)
}

// Truthy interprets a bool-as-string value.
func Truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "false", "no", "nil", "off", "0":
		return false
	}
	return true
}

// Steps returns the parsed build steps of the drone, in declaration order.
func (p Properties) Steps() []Step {
	raw := p.List(PropBuildStep)
	steps := make([]Step, 0, len(raw))
	for _, s := range raw {
		steps = append(steps, ParseStep(s))
	}
	return steps
}

// PropertyKey converts a registry key (load-path) to a property name (loadPath).
func PropertyKey(registryKey string) string {
	parts := strings.Split(registryKey, "-")
	var sb strings.Builder
	sb.WriteString(parts[0])
	for _, part := range parts[1:] {
		if part == "" {
			continue
		}
		sb.WriteString(strings.ToUpper(part[:1]))
		sb.WriteString(part[1:])
	}
	return sb.String()
}

// RegistryKey converts a property name (loadPath) to its registry key (load-path).
func RegistryKey(prop string) string {
	var sb strings.Builder
	for i, r := range prop {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(r - 'A' + 'a')
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
