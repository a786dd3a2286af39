package handoff

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// QRCode renders link as a PNG so a summary can be opened on a second device.
// size is clamped to 128..1024 pixels.
func QRCode(link string, size int) ([]byte, error) {
	if link == "" {
		return nil, fmt.Errorf("qr: empty link")
	}
	if size < 128 {
		size = 128
	}
	if size > 1024 {
		size = 1024
	}
	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("qr: %w", err)
	}
	return png, nil
}
