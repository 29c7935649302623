// Package taxonomy defines the fixed, ordered color taxonomy that dominant
// colors are classified into.
//
// A Taxonomy is pure configuration: it is built once with New (or Default),
// validated, and never mutated afterwards. Matchers receive it by injection and
// share it read-only, so no locking is needed.
//
// Entries come in two kinds:
//   - Achromatic tier entries (black, white, dark gray, gray, light gray) are
//     bound to a Tier and selected by the matcher's dedicated achromatic rules.
//   - Chromatic entries declare a hue range and optional saturation/value
//     constraints and are matched by reference color distance.
//
// Design decision: Entry order is part of the contract. When two candidates are
// equidistant from a sample, the entry declared first wins, so test
// expectations stay reproducible across runs.
package taxonomy
