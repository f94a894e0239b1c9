// Package status normalizes the status documents of workload controllers into
// a single lifecycle taxonomy.
//
// Deployments report health through a list of conditions, while StatefulSets,
// DaemonSets and ReplicaSets report replica counters. Classify dispatches on
// the (case-insensitive) kind and applies one normalizer per kind; kinds it
// does not know map to Unknown. Classify never fails.
package status
