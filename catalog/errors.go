// SPDX-License-Identifier: EPL-2.0

package catalog

import "errors"

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrDuplicateID     = errors.New("duplicate profile id")
	ErrBadDocument     = errors.New("malformed catalog document")
)
