// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package pointer builds and reads the optional fields of stored records.

Nullable columns (avatar URL, verification code and its timestamps, the
activation token) are modelled as pointers; these helpers keep call sites free
of temporary variables.

Key Functions:
  - To: Creates a pointer from a value.
  - Val: Dereferences a pointer, returning the zero value if nil.
  - NonEmpty: Trims a string and maps blank values to nil.
*/
package pointer

import "strings"

// To returns a pointer to a copy of v.
func To[T any](v T) *T {
	return &v
}

// Val safely dereferences a pointer.
// If the pointer is nil, it returns the zero value of the underlying type.
func Val[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// NonEmpty trims s and returns nil when nothing is left.
func NonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
