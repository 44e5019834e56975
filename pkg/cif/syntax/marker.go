// File: marker.go
// Title: CIF 2.0 Marker
// Description: Detects the #\#CIF_2.0 marker line after an optional
//              byte order mark and leading whitespace.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-14
// Modified: 2026-10-14
//
// Change History:
// - 2026-10-14 v0.1.0: Initial implementation

package syntax

import "strings"

const (
	// BOM is the UTF-8 byte order mark
	BOM = "\uFEFF"

	// Marker is the magic comment that opts a document into CIF 2.0
	Marker = `#\#CIF_2.0`
)

// HasMarker reports whether src begins with the CIF 2.0 marker. A byte
// order mark and leading whitespace may precede it, and it must be followed
// by whitespace or end of input.
func HasMarker(src string) bool {
	s := strings.TrimPrefix(src, BOM)
	s = strings.TrimLeft(s, " \t\r\n")
	if !strings.HasPrefix(s, Marker) {
		return false
	}
	rest := s[len(Marker):]
	return rest == "" || isSpace(rest[0])
}
