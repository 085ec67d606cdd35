package profile

import (
	"fmt"
	"regexp"
)

var nameRe = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// ValidateName checks that a profile name is safe to use as a directory name.
func ValidateName(name string) error {
	if !nameRe.MatchString(name) {
		return fmt.Errorf("invalid profile name %q: must match %s", name, nameRe.String())
	}
	return nil
}
