package service

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

type QRGenerator interface {
	Generate(deliveryID int64) ([]byte, error)
}

// DefaultQRGenerator encodes the public tracking link for a delivery as a
// 256px PNG, for printing on the order slip.
type DefaultQRGenerator struct {
	BaseURL string
}

func (g DefaultQRGenerator) Generate(deliveryID int64) ([]byte, error) {
	qrData := fmt.Sprintf("%s/track.html?delivery_id=%d", g.BaseURL, deliveryID)
	return qrcode.Encode(qrData, qrcode.Medium, 256)
}
