// Package daemon combines the per-source trigger controllers, watchers, and
// syncers into a single lifecycle with flock-based locking to prevent
// multiple concurrent instances.
//
// Start acquires the lock and launches one controller per configured source;
// Stop cancels them, waits for in-flight cycles, and releases the lock. Each
// source also gets an immediate startup cycle so a freshly started daemon
// converges without waiting for the first interval tick.
package daemon
