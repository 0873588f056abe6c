// Package filter decides which remote entries participate in a sync.
//
// Rules are compiled once per source from its configuration: media extension
// allow list, ignore extensions, ignore keywords, then include and exclude
// regular expressions. Directories are evaluated separately for pruning so
// the walker can skip excluded subtrees without enumerating them.
package filter
