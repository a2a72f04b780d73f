// Package naming provides the naming conventions for guests created by a
// batch. Names are used as the QEMU "name" or the LXC "hostname", so they
// follow DNS name rules: dot-separated labels such as "web0.lab".
package naming

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// maxLabelLength is the DNS limit for one dot-separated label.
	maxLabelLength = 63
	// maxNameLength is the DNS limit for a whole name.
	maxNameLength = 253
)

var labelPattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?$`)

// CloneName returns the destination name for target id in a range starting
// at min. The suffix is zero-based and follows range order.
// An empty prefix yields an empty name, meaning the server default applies.
//
// Example: prefix "web", min 100 → 100:web0, 101:web1, 103:web3
func CloneName(prefix string, id, min int) string {
	if prefix == "" {
		return ""
	}
	return prefix + strconv.Itoa(id-min)
}

// ValidatePrefix checks that every name CloneName can produce for a range of
// size count is a valid DNS name.
func ValidatePrefix(prefix string, count int) error {
	if prefix == "" {
		return nil
	}
	// The longest name carries the widest suffix.
	longest := CloneName(prefix, count-1, 0)
	return ValidateName(longest)
}

// ValidateName checks that name is usable as a guest name or hostname.
func ValidateName(name string) error {
	if name == "" {
		return nil
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("name %q exceeds %d characters", name, maxNameLength)
	}
	for _, label := range strings.Split(name, ".") {
		if len(label) > maxLabelLength {
			return fmt.Errorf("name %q has a label longer than %d characters", name, maxLabelLength)
		}
		if !labelPattern.MatchString(label) {
			return fmt.Errorf("name %q must be dot-separated labels of letters, digits, or hyphens, none starting or ending with a hyphen", name)
		}
	}
	return nil
}
