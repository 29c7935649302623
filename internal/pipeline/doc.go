// Package pipeline classifies catalog rows by running a fixed sequence of
// steps per row and drives those rows through a checkpointed batch run.
//
// A row moves through four steps: fetch the image, filter background
// pixels, extract the dominant color, and match it against the taxonomy.
// Each step is implemented as a Step that reads what earlier steps left on
// the *model.Job and adds its own part.
//
// Design decision: BatchRunner is strictly sequential. Rows are processed
// one at a time with a throttle wait between them, so the image host sees a
// predictable request rate and a checkpoint always holds a contiguous
// prefix of the input. A failing row never stops the run; only failing to
// persist results does.
package pipeline
