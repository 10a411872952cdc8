/*
Package resilience provides the circuit breaker used by the remote storage backend.

# Overview

When the remote file server keeps failing, the breaker opens and calls fail
fast with ErrCircuitOpen instead of stacking retries on a dead peer. After
Timeout it lets a limited number of probes through (half-open) and closes again
once they succeed.

Settings.IsFailure decides which errors count. The remote backend counts
transport errors and 5xx responses only; 404 and 409 are answers, not outages.

# Usage

	breaker := resilience.New("fileserver", resilience.Settings{
		Timeout: 10 * time.Second,
		IsFailure: func(err error) bool {
			return err != nil && vfs.Classify(err) == vfs.CodeIOFailure
		},
	})

	err := breaker.Do(ctx, func(ctx context.Context) error {
		return client.Get(ctx, path)
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open
*/
package resilience
