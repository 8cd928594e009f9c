// Package segment converts color raster images into binary black/white images
// using an Otsu-style global threshold.
//
// The pipeline is a straight-line data transformation:
//
//	bytes -> pixel grid -> grayscale grid -> histogram -> score table -> threshold -> binary grid -> bytes
//
// Decoding and encoding are delegated to the imaging package; everything in
// between is pure and holds no shared state, so separate images can be
// segmented concurrently.
//
// # Threshold Score
//
// For every candidate threshold t in [1,255] the histogram is split into a
// background class [0,t) and a foreground class [t,256). Each class
// contributes its pixel count times its intensity variance, and the sum is
// normalized by the number of occupied intensity levels:
//
//	score(t) = (count_bg/N)*var_bg + (count_fg/N)*var_fg
//
// where N is the number of histogram bins with a nonzero count. This differs
// from textbook Otsu, which divides by the total pixel count. Because N is
// constant for a given image, the selected threshold is the same either way;
// only the reported score differs.
//
// Candidates whose background or foreground class is empty are excluded. The
// remaining candidates are scanned from 1 to 255 and the first one with the
// smallest score wins.
//
// # Degenerate Images
//
// An image with fewer than two distinct gray levels has no candidate that
// splits it into two non-empty classes. Segmentation then fails with
// ErrEmptyScoreTable unless Options.Fallback supplies a threshold to use.
//
// # Polarity
//
// PolarityBrightWhite (the default) maps pixels brighter than the threshold to
// white (255) and everything else to black (0). PolarityBrightBlack inverts
// that mapping.
package segment
