package service

// Actor identifies who performed a mutating operation. The values come from
// the surrounding session layer and are treated as opaque strings.
type Actor struct {
	ID             string
	Name           string
	OrganizationID string
}
