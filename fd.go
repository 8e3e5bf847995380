package dbus

// UnixFD is a DBus UNIX_FD: a handle to a file descriptor sent
// alongside a message.
//
// The codec treats the handle as an opaque number. Wire adapters are
// responsible for translating between handles and the out-of-band
// descriptor list of a message.
type UnixFD int32

func (UnixFD) Type() Signature { return "h" }
func (UnixFD) isValue()        {}
