package progress

import "strings"

// SessionKey normalizes a company name into a session key: lowercased,
// surrounding whitespace dropped and inner whitespace runs joined by "-".
// "Acme Corp" and " acme   CORP" share the key "acme-corp".
func SessionKey(companyName string) string {
	return strings.Join(strings.Fields(strings.ToLower(companyName)), "-")
}
