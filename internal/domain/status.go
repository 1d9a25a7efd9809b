package domain

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

func ValidStatus(s string) bool {
	return s == StatusActive || s == StatusInactive
}
