package enums

// Permission names a grant attached to roles through roles_permissions.
type Permission string

const (
	PermissionInventoryRead  Permission = "inventory.read"
	PermissionInventoryWrite Permission = "inventory.write"
	PermissionCheckoutCreate Permission = "checkout.create"
	PermissionAdmin          Permission = "admin"
)

// String implements fmt.Stringer.
func (p Permission) String() string {
	return string(p)
}
