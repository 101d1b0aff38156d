// Package opt holds values that may be missing, so that an absent value is
// never confused with an empty one.
package opt

// String is a string that is either present (possibly empty) or missing.
// The zero value is missing.
type String struct {
	value string
	ok    bool
}

// Some returns a present String holding s.
func Some(s string) String {
	return String{value: s, ok: true}
}

// None returns a missing String.
func None() String {
	return String{}
}

// Get returns the value and whether it is present.
func (s String) Get() (string, bool) {
	return s.value, s.ok
}

func (s String) IsPresent() bool {
	return s.ok
}

// OrElse returns the value when present, def otherwise.
func (s String) OrElse(def string) string {
	if !s.ok {
		return def
	}
	return s.value
}

// String renders missing values as "<missing>" for logs and previews.
func (s String) String() string {
	if !s.ok {
		return "<missing>"
	}
	return s.value
}
