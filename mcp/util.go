// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"crypto/rand"
	"encoding/json"
	"fmt"

	"github.com/mcp-toolkit/go-engine/internal/jsonrpc2"
)

func assert(cond bool, msg string) {
	if !cond {
		panic(msg)
	}
}

func randText() string {
	return rand.Text()
}

// remarshal marshals from to JSON, and then unmarshals into to, which must be
// a pointer type.
func remarshal(from, to any) error {
	data, err := json.Marshal(from)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, to); err != nil {
		return err
	}
	return nil
}

// paginate slices a collection of the given length according to an
// opaque numeric cursor (the index at which the next page starts) and a page size,
// returning the bounds of the next page and the cursor for the page
// after that, if any.
func paginate(n int, cursor string, pageSize int) (start, end int, next string, err error) {
	if cursor != "" {
		var idx int
		if _, err := fmt.Sscanf(cursor, "%d", &idx); err != nil || idx < 0 || idx > n {
			return 0, 0, "", fmt.Errorf("%w: invalid cursor", jsonrpc2.ErrInvalidParams)
		}
		start = idx
	}
	if pageSize <= 0 {
		pageSize = n
	}
	end = start + pageSize
	if end > n {
		end = n
	}
	if end < n {
		next = fmt.Sprintf("%d", end)
	}
	return start, end, next, nil
}
