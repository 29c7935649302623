// Package main provides the entry point for the colortag CLI.
//
// colortag labels every product in a CSV export with a named color. It
// downloads each product image, removes the background, finds the dominant
// color and matches it against a color taxonomy.
//
// Usage:
//
//	colortag classify products.csv -o products_labeled.csv
//	colortag match "#1f2a44" 200,16,46
//
// See --help for all available options.
package main

// main is the entry point for colortag.
func main() {
	Execute()
}
