// Package preflight provides readiness checks for the directories and
// binaries the worker depends on.
//
// These checks run in two contexts:
//   - The worker command calls RunAll and CheckSystemDeps at startup and logs
//     a warning for every failure. It still boots: a missing tool only fails
//     the jobs that need it.
//   - The CLI "aliyaal deps" command renders the same results as a table.
package preflight
