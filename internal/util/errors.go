// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by the license
// that can be found in the LICENSE file.
package util

import "fmt"

// Wrapf adds context to *errp, if it is non-nil, in the manner of fmt.Errorf.
// It is meant to be called from a defer:
//
//	func f(x int) (err error) {
//		defer util.Wrapf(&err, "f(%d)", x)
//		...
//	}
func Wrapf(errp *error, format string, args ...any) {
	if *errp == nil {
		return
	}
	args = append(args, *errp)
	*errp = fmt.Errorf(format+": %w", args...)
}
