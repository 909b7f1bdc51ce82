package service

import (
	qrcode "github.com/skip2/go-qrcode"
)

// QRSize is the edge length in pixels of generated menu QR codes.
const QRSize = 1080

// QREncoder renders text as a square PNG of the given size.
type QREncoder interface {
	Encode(text string, size int) ([]byte, error)
}

// PNGEncoder is the QREncoder backed by go-qrcode.
type PNGEncoder struct {
	Level qrcode.RecoveryLevel
}

func NewPNGEncoder() PNGEncoder {
	return PNGEncoder{Level: qrcode.Medium}
}

func (e PNGEncoder) Encode(text string, size int) ([]byte, error) {
	return qrcode.Encode(text, e.Level, size)
}
