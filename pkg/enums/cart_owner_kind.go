package enums

import "fmt"

// CartOwnerKind distinguishes signed-in carts from guest carts.
type CartOwnerKind string

const (
	CartOwnerUser  CartOwnerKind = "user"
	CartOwnerGuest CartOwnerKind = "guest"
)

// String implements fmt.Stringer.
func (k CartOwnerKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known CartOwnerKind.
func (k CartOwnerKind) IsValid() bool {
	return k == CartOwnerUser || k == CartOwnerGuest
}

// ParseCartOwnerKind converts raw input into a CartOwnerKind.
func ParseCartOwnerKind(value string) (CartOwnerKind, error) {
	k := CartOwnerKind(value)
	if !k.IsValid() {
		return "", fmt.Errorf("invalid cart owner kind %q", value)
	}
	return k, nil
}
