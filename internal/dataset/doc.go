// Package dataset reads product catalogs and writes classified snapshots.
//
// Catalogs are CSV files (TSV when the extension is .tsv) with at least the
// identifier, name and image_url columns. Input is decoded through a BOM
// sniffer, so UTF-8 exports with a byte order mark and UTF-16 exports from
// spreadsheet tools read the same as plain UTF-8.
//
// A snapshot is the input table restricted to the rows that have a result,
// with the color column set to the matched label. Snapshots are written to
// a temporary file and renamed over the output, so a crash mid-write leaves
// the previous checkpoint intact.
package dataset
