// Package ocr defines the recognition backend contract used by the captcha
// solver. The Tesseract implementation lives in the tesseract subpackage.
//
// An Engine recognizes one preprocessed variant under one page-segmentation
// Mode with the output alphabet restricted to ASCII digits and letters. Empty
// text is a normal result; errors are reserved for backend failures.
package ocr
