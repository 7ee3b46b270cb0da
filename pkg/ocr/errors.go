package ocr

import "errors"

// ErrNoAmount is returned when no plausible billed total can be extracted
// from the receipt image.
var ErrNoAmount = errors.New("no amount detected")
