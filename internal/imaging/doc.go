// Package imaging is the codec side of segmentation: it turns encoded bytes
// into images and binary results back into PNG bytes.
//
// # Input
//
// Images arrive either as files (ReadFile), streams (ReadAll) or base64
// payloads (DecodeBase64). All three enforce a maximum input size and fail
// with ErrTooLarge before any decoding happens. Decode recognizes PNG, JPEG,
// GIF, BMP, TIFF and WebP and applies EXIF orientation.
//
// # Output
//
// Compose turns a binary grid into the image to encode: a two-color paletted
// image when the source is opaque (written as a 1-bit PNG), or NRGBA carrying
// the source alpha otherwise. EncodePNG serializes it. PNG encoding is
// deterministic, so identical inputs produce byte-identical output.
//
// # Coordinate System
//
// Regions use 0-based coordinates relative to the image's top-left pixel,
// with (x1,y1) inclusive and (x2,y2) exclusive.
//
// # Thread Safety
//
// Every function is stateless and safe for concurrent use.
package imaging
