// Package steporder implements the reorder-steps pass. Markdown cells whose
// text holds a "## Step N: ..." header open a segment that runs up to the next
// header. Segments are stably sorted by N, so duplicate numbers keep their
// original relative order, and every cell before the first header stays at
// the front untouched. Nothing is written when the notebook is already in
// step order.
package steporder
