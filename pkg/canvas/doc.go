// Package canvas implements [forcegraph.Canvas] for PNG and SVG output.
//
// [Raster] paints onto an in-memory RGBA image with fogleman/gg and encodes
// it as PNG. [SVG] writes an SVG document element by element. Both keep the
// current transform, fill, stroke, line width and font size on a
// save/restore stack, so the force-graph draw callbacks behave the same on
// either surface.
//
// [Paint] frames a settled [forcegraph.View] on a canvas: it fits the node
// bounds into the canvas, applies the transform and draws every element with
// the zoom factor as the callback scale.
package canvas
