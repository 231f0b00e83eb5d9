// SPDX-License-Identifier: EPL-2.0

// Package profile holds the authored data behind every sound: a Profile
// names an output group, one PlaybackConfig per layered clip and optional
// SpatialSettings used when the sound is emitted from a positioned anchor.
//
// Values in this package are immutable once loaded. Validate reports every
// violated invariant at once so catalog authors can fix a file in one pass.
package profile
