package service

// QRCodeService renders and reads order receipt QR codes.
type QRCodeService interface {
	// GenerateOrderQR returns a PNG QR code referencing the order
	GenerateOrderQR(orderID string) ([]byte, error)

	// ParseOrderQR reads the QR payload and returns the order ID
	ParseOrderQR(qrData string) (string, error)
}
