// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package oracle defines the boundary to the external analysis oracle:
// a black-box service that accepts structured text plus a task description
// and returns structured JSON matching a declared shape. Everything behind
// this interface is opaque to the core.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Task is one request for semantic judgment.
type Task struct {
	// Stage is the pipeline stage asking for the judgment.
	Stage string

	// Instruction describes what to assess.
	Instruction string

	// Input is the structured text under assessment.
	Input string

	// Shape declares the expected JSON output shape, as a description the
	// oracle follows.
	Shape string
}

// Oracle turns a Task into structured findings. Implementations handle
// one task per call so tests can supply a mock.
type Oracle interface {
	Assess(ctx context.Context, task Task) (json.RawMessage, error)
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

const defaultMaxRetries = 3

// AssessWithRetry calls the oracle with exponential backoff on failure.
// When maxRetries is 0 the default (3) is used. If the context is
// cancelled during a backoff wait the context error is returned.
func AssessWithRetry(ctx context.Context, o Oracle, task Task, maxRetries int) (json.RawMessage, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := o.Assess(ctx, task)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}
