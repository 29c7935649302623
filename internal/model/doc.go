// Package model defines the core data structures shared across colortag.
//
// This package contains the following main types:
//   - RGB and HSV: color samples in the two spaces the engine works in
//   - Row: one input dataset row (identifier, name, image URL)
//   - SourceImage: a fetched, decoded and downsampled pixel grid
//   - Job: the in-flight state of one row moving through the pipeline
//   - Result: the classification outcome persisted for a row
//   - Summary: batch level counts and label distribution
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The fetch, filter, cluster, match, pipeline, dataset and report
// packages all exchange these types, so centralizing them prevents import cycles.
package model
