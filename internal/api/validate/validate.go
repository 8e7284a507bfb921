// Package validate holds small request-field validators shared by handlers.
package validate

import (
	"fmt"
	"regexp"
)

// profileIdRx matches the identifiers minted by model.NewProfileID.
var profileIdRx = regexp.MustCompile(`^prof_[0-9a-f]{32}$`)

// ProfileID checks a path parameter before it reaches the store.
func ProfileID(v string) error {
	if v == "" {
		return fmt.Errorf("profile id is required")
	}
	if !profileIdRx.MatchString(v) {
		return fmt.Errorf("malformed profile id")
	}
	return nil
}

func NonEmpty(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

func MaxLen(field, v string, limit int) error {
	if len(v) > limit {
		return fmt.Errorf("%s exceeds %d characters", field, limit)
	}
	return nil
}
