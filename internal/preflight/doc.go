// Package preflight provides readiness checks for the filesystem paths the
// archive depends on.
//
// These checks run in two contexts:
//   - The filesystem archive backend calls CheckDirectoryAccess before taking
//     its directory lock.
//   - The CLI "seadva status" command runs RunAll to display path health.
//
// Checks for disabled backends (memory staging or archive) are skipped.
package preflight
