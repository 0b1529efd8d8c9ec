package fs

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// LockFileName guards the data directory against concurrent writers in other processes.
const LockFileName = ".voicenotes.lock"

// DefaultLockTimeout bounds how long a write waits for another process to
// release the directory lock.
const DefaultLockTimeout = 2 * time.Second

const lockRetryInterval = 10 * time.Millisecond

// acquireLock takes the advisory lock on path, retrying while another process
// holds it, until ctx is done. The OS drops the lock when its holder exits, so
// a file left behind by a crashed process does not block writers.
func acquireLock(ctx context.Context, path string) (func(), error) {
	lock := flock.New(path)
	locked, err := lock.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("failed to acquire lock %s", path)
	}
	return func() { _ = lock.Unlock() }, nil
}
