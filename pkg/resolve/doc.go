// Package resolve is the dependency graph resolution engine of jarscope.
//
// # Overview
//
// Given a set of archives (see package archive), an [Analyzer] produces three
// views over the flattened universe of archives:
//
//   - [DependsOn]: for each archive, the archives that satisfy its
//     requirements, plus the requirements nothing satisfies.
//   - [Dependants]: for each archive, the archives that use what it provides.
//   - [Conflicts]: archives found at several locations with different versions.
//
// Each view carries a [Severity] and the [Report] carries their maximum.
//
// # Resolution
//
// A requirement resolves to the first archive, in name order, that provides
// the symbol and is visible to the consumer according to the [scope.Oracle].
// This is a first match, not a best match: there is no preference for version
// or loader proximity. When no archive qualifies, the configured profiles are
// consulted; a profile match satisfies the requirement silently. Anything left
// is reported unresolved and raises [SeverityWarning] unless the
// [filter.Policy] whitelists the archive and symbol pair.
//
// Dependants are computed independently by scanning every consumer's
// requirements against each provider. Whenever Depends-On resolves a
// requirement of A to P, P's dependants include A.
//
// # Conflicts
//
// An archive is flagged when any location's version differs from the first
// location's. Two unlisted versions are equal. Flagged archives raise
// [SeverityCritical] unless whitelisted by archive name.
//
// # Concurrency
//
// Inputs are read-only during a run. Per-archive work runs in parallel,
// bounded by [WithConcurrency]; every worker writes its own result slot and
// severities are merged with [Severity.Raise] after all workers finish, so
// output is identical regardless of scheduling.
//
// [scope.Oracle]: github.com/matzehuels/jarscope/pkg/scope
// [filter.Policy]: github.com/matzehuels/jarscope/pkg/filter
package resolve
