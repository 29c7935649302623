// Package config provides configuration structures and utilities for colortag.
// It defines the options for fetching images, removing backgrounds, extracting
// the dominant color, pacing requests and checkpointing batch runs.
package config
