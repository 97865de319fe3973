// Package index provides an exact inner-product index over the movie
// vector table. Rows are inserted in artifact order, so a hit's row
// position maps straight back to a movie record. With normalized
// vectors on both sides the inner product is cosine similarity.
package index
