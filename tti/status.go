package tti

import "ttx/page"

// Page status (PS) word bit numbers. Word is handled as two bytes in
// transmission order and bit n is bit n%8 of byte n/8, so for example bit 6
// is 0x4000 and bit 8 is 0x0001 in the hex field.
const (
	bitLanguage1           = 0
	bitLanguage0           = 1
	bitErasePage           = 6
	bitTransmitPage        = 7
	bitNewsFlash           = 8
	bitSubtitle            = 9
	bitSuppressHeader      = 10
	bitUpdate              = 11
	bitInterruptedSequence = 12
	bitSuppressPage        = 13
	bitLanguage2           = 15
)

func statusBit(word uint16, n int) bool {
	b := [2]byte{byte(word >> 8), byte(word)}
	return (b[n/8]>>(n%8))&1 == 1
}

func setStatusBit(word uint16, n int) uint16 {
	if n/8 == 0 {
		return word | 1<<(8+n%8)
	}
	return word | 1<<(n%8)
}

// DecodeStatus merges flags from status word into control. Only set flags
// are applied, so several PS records accumulate.
func DecodeStatus(word uint16, c *page.Control) {
	flags := []struct {
		bit int
		dst *bool
	}{
		{bitErasePage, &c.ErasePage},
		{bitNewsFlash, &c.NewsFlash},
		{bitSubtitle, &c.Subtitle},
		{bitSuppressHeader, &c.SuppressHeader},
		{bitUpdate, &c.Update},
		{bitSuppressPage, &c.SuppressPage},
		{bitInterruptedSequence, &c.InterruptedSequence},
	}
	for _, f := range flags {
		if statusBit(word, f.bit) {
			*f.dst = true
		}
	}

	// NOTE: order of language bits is kept exactly as existing files have it
	language := 0
	if statusBit(word, bitLanguage2) {
		language |= 4
	}
	if statusBit(word, bitLanguage1) {
		language |= 2
	}
	if statusBit(word, bitLanguage0) {
		language |= 1
	}
	if language != 0 {
		c.Language = language
	}

	if !statusBit(word, bitTransmitPage) {
		c.TransmitPage = page.Bool(false)
	}
}

// EncodeStatus builds status word from control, nil control produces
// transmit bit only.
func EncodeStatus(c *page.Control) uint16 {
	var word uint16
	if c.Transmit() {
		word = setStatusBit(word, bitTransmitPage)
	}
	if c == nil {
		return word
	}

	flags := []struct {
		bit int
		set bool
	}{
		{bitErasePage, c.ErasePage},
		{bitNewsFlash, c.NewsFlash},
		{bitSubtitle, c.Subtitle},
		{bitSuppressHeader, c.SuppressHeader},
		{bitUpdate, c.Update},
		{bitSuppressPage, c.SuppressPage},
		{bitInterruptedSequence, c.InterruptedSequence},
		{bitLanguage2, c.Language&4 != 0},
		{bitLanguage1, c.Language&2 != 0},
		{bitLanguage0, c.Language&1 != 0},
	}
	for _, f := range flags {
		if f.set {
			word = setStatusBit(word, f.bit)
		}
	}
	return word
}
