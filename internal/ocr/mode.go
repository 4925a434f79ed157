package ocr

import "strconv"

// Alphabet is the character whitelist handed to the recognizer.
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Mode is a Tesseract page segmentation mode: the layout the recognizer
// assumes for the image.
type Mode int

// Recognition modes used by the solver.
const (
	ModeSingleBlock Mode = 6
	ModeSingleLine  Mode = 7
	ModeSingleWord  Mode = 8
	ModeRawLine     Mode = 13
)

// AllModes returns the full mode set in try order.
func AllModes() []Mode {
	return []Mode{ModeSingleWord, ModeSingleLine, ModeRawLine, ModeSingleBlock}
}

// String returns a short name for logs.
func (m Mode) String() string {
	switch m {
	case ModeSingleBlock:
		return "single-block"
	case ModeSingleLine:
		return "single-line"
	case ModeSingleWord:
		return "single-word"
	case ModeRawLine:
		return "raw-line"
	default:
		return "psm-" + strconv.Itoa(int(m))
	}
}
