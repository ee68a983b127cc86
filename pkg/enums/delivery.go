package enums

// DeliveryStatus records the per-ticket outcome of a push attempt.
type DeliveryStatus string

const (
	DeliveryStatusSent   DeliveryStatus = "sent"
	DeliveryStatusFailed DeliveryStatus = "failed"
)

// IsValid checks whether the status matches the canonical enum.
func (d DeliveryStatus) IsValid() bool {
	return d == DeliveryStatusSent || d == DeliveryStatusFailed
}
