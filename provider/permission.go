package provider

import "fmt"

// DeletePermission is the answer of a CanDelete pre-check.
type DeletePermission int

const (
	// DeleteAllowed means the row exists and nothing references it.
	DeleteAllowed DeletePermission = iota
	// DeleteInUse means other rows reference the row.
	DeleteInUse
	// DeleteNotFound means there is no such row.
	DeleteNotFound
)

func (p DeletePermission) String() string {
	switch p {
	case DeleteAllowed:
		return "allowed"
	case DeleteInUse:
		return "in use"
	case DeleteNotFound:
		return "not found"
	default:
		return fmt.Sprintf("permission(%d)", int(p))
	}
}

// Allowed reports whether a delete would succeed.
func (p DeletePermission) Allowed() bool { return p == DeleteAllowed }
