// Package displaylist holds the render tree a paint task rasterizes: a
// tree of stacking contexts, each with a display list of drawable items
// in CSS painting order.
//
// A tree is built once upstream and never mutated after it is handed to a
// paint task. Workers read it concurrently while painting tiles; a new
// tree replaces the old one wholesale.
package displaylist
