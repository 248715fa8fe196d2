package dialogue

import "regexp"

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// IsValidEmail is a pure syntax check; it never verifies the mailbox
// exists.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
