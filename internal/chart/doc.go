// Package chart is the rendering boundary: it turns the statistics of a run
// into a line dataset plus the caption text shown beneath it. Nothing here
// draws pixels.
package chart
