// Atlasaudit - Atlassian Cloud Audit Log Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/atlasaudit

package atlassian

import (
	"errors"
)

// Error taxonomy for upstream failures. The extraction driver distinguishes
// these to decide between aborting the run and retrying on the next schedule;
// none of them ever advances the checkpoint.
var (
	// ErrAuth covers HTTP 401/403. Fatal, never retried.
	ErrAuth = errors.New("atlassian: authentication or authorization failed")

	// ErrRateLimited is returned after HTTP 429 retries are exhausted.
	ErrRateLimited = errors.New("atlassian: rate limit exceeded after retries")

	// ErrTransient is returned after retries for 5xx or transport failures
	// are exhausted.
	ErrTransient = errors.New("atlassian: transient upstream failure after retries")

	// ErrMalformedPage marks an undecodable page payload. Fatal for the run.
	ErrMalformedPage = errors.New("atlassian: malformed page payload")
)
