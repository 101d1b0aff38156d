package body

import "strings"

// Marker is the literal placed between the texts of sibling parts. It matches
// the marker found in previously archived documents.
const Marker = "* * * * * * * * * * * * * * * * * * * * * * * * *  PART CHANGE  * * * * * * * * * * * * * * * * * * * * * * * * *"

// Separator joins the normalized texts of a multi-part message.
const Separator = "\n\n" + Marker + "\n\n"

// Join concatenates per-part texts in document order.
func Join(parts []string) string {
	return strings.Join(parts, Separator)
}

// Split undoes Join.
func Split(text string) []string {
	return strings.Split(text, Separator)
}

// First returns the text of the first part.
func First(text string) string {
	first, _, _ := strings.Cut(text, Separator)
	return first
}
