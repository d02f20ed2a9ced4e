package model

import (
	"fmt"
	"regexp"
	"strings"
)

// Address is a numerical Move account address, canonically "0x"-prefixed hex.
type Address string

var addressPattern = regexp.MustCompile(`^(0[xX])?[0-9a-fA-F]{1,64}$`)

// ParseAddress validates and canonicalizes an address literal.
func ParseAddress(s string) (Address, error) {
	trimmed := strings.TrimSpace(s)
	if !addressPattern.MatchString(trimmed) {
		return "", fmt.Errorf("invalid address literal %q", s)
	}

	if !strings.HasPrefix(trimmed, "0x") && !strings.HasPrefix(trimmed, "0X") {
		trimmed = "0x" + trimmed
	}

	return Address(strings.ToLower(trimmed)), nil
}

// NamedAddressMap is an ordered mapping from symbolic name to account address.
// Insertion order is preserved so merge precedence stays deterministic and
// observable.
type NamedAddressMap struct {
	names []string
	addrs map[string]Address
}

// NewNamedAddressMap returns an empty map ready for use.
func NewNamedAddressMap() NamedAddressMap {
	return NamedAddressMap{addrs: map[string]Address{}}
}

// Len returns the number of bindings.
func (m NamedAddressMap) Len() int {
	return len(m.names)
}

// Get looks up the address bound to name.
func (m NamedAddressMap) Get(name string) (Address, bool) {
	addr, ok := m.addrs[name]
	return addr, ok
}

// Set binds name to addr, overwriting any existing binding. A new name is
// appended to the iteration order.
func (m *NamedAddressMap) Set(name string, addr Address) {
	if m.addrs == nil {
		m.addrs = map[string]Address{}
	}

	if _, exists := m.addrs[name]; !exists {
		m.names = append(m.names, name)
	}

	m.addrs[name] = addr
}

// SetDefault binds name to addr only when the name is not yet bound. It
// returns true when the binding was inserted. Merging with SetDefault in a
// fixed package order is how first-seen-wins precedence is implemented.
func (m *NamedAddressMap) SetDefault(name string, addr Address) bool {
	if m.addrs == nil {
		m.addrs = map[string]Address{}
	}

	if _, exists := m.addrs[name]; exists {
		return false
	}

	m.names = append(m.names, name)
	m.addrs[name] = addr

	return true
}

// Names returns the binding names in insertion order.
func (m NamedAddressMap) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)

	return out
}

// Clone returns an independent copy preserving order.
func (m NamedAddressMap) Clone() NamedAddressMap {
	clone := NamedAddressMap{
		names: make([]string, len(m.names)),
		addrs: make(map[string]Address, len(m.addrs)),
	}

	copy(clone.names, m.names)

	for name, addr := range m.addrs {
		clone.addrs[name] = addr
	}

	return clone
}

// Pairs renders the bindings as "name=0x..." strings in insertion order, the
// shape the compiler toolchain accepts on its command line.
func (m NamedAddressMap) Pairs() []string {
	pairs := make([]string, 0, len(m.names))
	for _, name := range m.names {
		pairs = append(pairs, fmt.Sprintf("%s=%s", name, m.addrs[name]))
	}

	return pairs
}
