// Command strmsync mirrors remote media libraries into local placeholder
// trees. It bundles the long-running daemon, one-shot sync runs, and
// inspection utilities for the tracked state.
package main
