// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

// Package offload runs CPU-heavy work, such as password hashing, on a fixed
// set of worker goroutines behind a bounded queue.
//
// Request goroutines submit a task and wait for its result. A full queue is
// reported immediately with ErrPoolSaturated instead of queueing without
// bound, so a burst of logins cannot pile up unbounded hashing work.
package offload
