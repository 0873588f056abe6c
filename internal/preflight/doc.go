// Package preflight provides readiness checks for the remote server and the
// mirror filesystem that strmsync depends on.
//
// These checks run in two contexts:
//   - The syncer runs the filesystem checks before each cycle. If any check
//     fails, the cycle aborts before touching the remote server.
//   - The CLI "strmsync status" command uses the individual check functions
//     (CheckEmby, CheckDirectoryAccess, CheckFreeSpace) to display health.
package preflight
