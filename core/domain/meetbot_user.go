package domain

import "strings"

// NormalizeUserID canonicalizes a transport-supplied user identifier to the
// single key form used for sessions, credentials, and reminder recipients.
// The rule is total and idempotent: normalize(normalize(x)) == normalize(x).
//
// Steps: lowercase, strip "whatsapp:"/"tel:" transport prefixes, drop any
// "@host" messaging suffix, then reduce phone-shaped remainders (digits with
// separators and an optional leading "+") to digits only. Non-phone handles
// are kept as-is after the prefix/suffix stripping.
func NormalizeUserID(raw string) string {
	id := strings.ToLower(strings.TrimSpace(raw))

	for _, prefix := range []string{"whatsapp:", "tel:", "sms:"} {
		id = strings.TrimPrefix(id, prefix)
	}

	if at := strings.IndexByte(id, '@'); at >= 0 {
		id = id[:at]
	}

	digits := make([]byte, 0, len(id))
	phoneShaped := len(id) > 0
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= '0' && c <= '9':
			digits = append(digits, c)
		case c == '+' || c == '-' || c == ' ' || c == '(' || c == ')' || c == '.':
			// separator, ignored
		default:
			phoneShaped = false
		}
	}

	if phoneShaped && len(digits) > 0 {
		return string(digits)
	}
	return id
}
