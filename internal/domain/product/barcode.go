package product

// Accepted barcode lengths: EAN-8, UPC-A, EAN-13 and the in-store ranges
// between them.
const (
	minBarcodeLen = 8
	maxBarcodeLen = 13
)

// ValidBarcode reports whether s is a plausible product barcode: digits only,
// within the accepted length range. No checksum verification; the catalog
// services accept non-checksummed internal codes.
func ValidBarcode(s string) bool {
	if len(s) < minBarcodeLen || len(s) > maxBarcodeLen {
		return false
	}
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
