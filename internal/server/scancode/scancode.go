// Package scancode renders the QR images printed next to specimens. Scanning
// one opens the specimen's public detail page.
package scancode

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/skip2/go-qrcode"
)

// ContentType of everything Encode returns.
const ContentType = "image/png"

// Encoder turns a URL into image bytes.
type Encoder interface {
	Encode(url string) ([]byte, error)
}

// QREncoder produces square PNG QR codes.
type QREncoder struct {
	size  int
	level qrcode.RecoveryLevel
}

// NewQREncoder returns an encoder producing size x size pixel images.
func NewQREncoder(size int) *QREncoder {
	if size <= 0 {
		size = 256
	}
	return &QREncoder{size: size, level: qrcode.Medium}
}

func (e *QREncoder) Encode(target string) ([]byte, error) {
	if strings.TrimSpace(target) == "" {
		return nil, fmt.Errorf("empty scan-code target")
	}
	png, err := qrcode.Encode(target, e.level, e.size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// TargetURL is the detail page a specimen's scan code points at, e.g.
// https://example.app/PlantView?id=12.
func TargetURL(frontendBase, viewPage string, id int64) string {
	q := url.Values{}
	q.Set("id", strconv.FormatInt(id, 10))
	return strings.TrimRight(frontendBase, "/") + "/" + viewPage + "?" + q.Encode()
}
