// Package cluster estimates the dominant color of a pixel set.
//
// Extraction runs seeded k-means (k-means++ initialization, Lloyd
// iterations, several restarts keeping the lowest inertia) over RGB
// samples. Every random draw comes from a generator seeded with the
// configured seed, so the same pixels always produce the same clusters.
//
// Two selection strategies are presets of one parameter:
//   - StrategyLargest picks the centroid of the most populated cluster.
//   - StrategyMean forces k = 1 and returns the mean color.
package cluster
