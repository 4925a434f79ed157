// Package imaging turns one captured captcha image into a fixed, ordered set of
// cleaned renderings ("variants") for optical recognition.
//
// Every variant is produced by a Recipe: an optional integer upscale followed by
// a chain of grayscale filters (binarization, morphology, edge detection, ...).
// The pixel path is fully deterministic: the same input bytes always yield
// bit-identical variants, which keeps solver behavior reproducible in tests.
//
// Design decision: The filters are implemented directly on *image.Gray instead
// of binding OpenCV because:
//  1. The recipes only need a handful of small, well-known operators
//  2. A cgo OpenCV build would dominate the toolchain requirements
//  3. Integer implementations make bit-exact determinism easy to guarantee
//
// Upscaling uses golang.org/x/image/draw's Catmull-Rom kernel.
package imaging
