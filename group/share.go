package group

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/kevinbrodzinski/nightlife/itinerary"
)

// JoinURL is the deep link encoded in a plan's QR code.
func JoinURL(code string) string {
	return "nightlife://join/" + NormalizeCode(code)
}

// ShareText is the message a member sends to invite friends.
func ShareText(p Plan) string {
	stops := lo.Map(p.Itinerary, func(item itinerary.Item, _ int) string {
		return fmt.Sprintf("%s %s", item.StartLabel(), item.Venue.Name)
	})
	return fmt.Sprintf("Join my night out! Use code %s or open %s\nStops: %s",
		p.Code, JoinURL(p.Code), strings.Join(stops, ", "))
}

// QRCode renders the plan's join link as a PNG of size pixels square.
func QRCode(p Plan, size int) ([]byte, error) {
	png, err := qrcode.Encode(JoinURL(p.Code), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}
