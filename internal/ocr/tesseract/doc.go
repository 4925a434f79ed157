// Package tesseract implements ocr.Engine on top of the Tesseract library
// through gosseract.
//
// The package needs cgo and the Tesseract and Leptonica development headers.
// Only the command imports it; the solver depends on the ocr contract alone.
package tesseract
