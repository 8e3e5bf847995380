package dbus

// Variant is a DBus VARIANT: a value boxed together with its own type
// signature.
type Variant struct {
	// Signature is the type of Value. It must be a single complete
	// type.
	Signature Signature
	Value     Value
}

// NewVariant returns a Variant holding v, with a signature derived
// from v's type.
func NewVariant(v Value) Variant {
	return Variant{v.Type(), v}
}

func (Variant) Type() Signature { return "v" }
func (Variant) isValue()        {}
