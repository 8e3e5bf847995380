package dbus

import "strings"

// ObjectPath is a DBus OBJECT_PATH.
type ObjectPath string

func (ObjectPath) Type() Signature { return "o" }
func (ObjectPath) isValue()        {}

// IsValid reports whether p is a syntactically valid object path.
//
// A valid path is "/", or a sequence of one or more "/"-prefixed
// elements made of ASCII letters, digits and underscores, with no
// trailing slash.
func (p ObjectPath) IsValid() bool {
	s := string(p)
	if s == "/" {
		return true
	}
	if !strings.HasPrefix(s, "/") || strings.HasSuffix(s, "/") {
		return false
	}
	for _, elem := range strings.Split(s[1:], "/") {
		if elem == "" {
			return false
		}
		for i := 0; i < len(elem); i++ {
			if !isPathByte(elem[i]) {
				return false
			}
		}
	}
	return true
}

func isPathByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}
