package logger

import (
	"net/url"
	"strings"
)

// sensitiveParams are query keys whose presence redacts the whole query string
var sensitiveParams = []string{"password", "token", "secret", "email"}

// SanitizedEmail masks an email address for logging: "alice@mail.example.com" becomes
// "a****@****.*******.com". Anything that is not local@domain becomes "[invalid-email]".
func SanitizedEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return "[invalid-email]"
	}

	if len(local) > 1 {
		local = local[:1] + strings.Repeat("*", len(local)-1)
	}

	labels := strings.Split(domain, ".")
	for i := 0; i < len(labels)-1; i++ {
		labels[i] = strings.Repeat("*", len(labels[i]))
	}

	return local + "@" + strings.Join(labels, ".")
}

// SanitizeQueryString reports whether rawQuery carries a sensitive parameter
// and should be redacted from request logs. Unparseable queries are redacted.
func SanitizeQueryString(rawQuery string) bool {
	if rawQuery == "" {
		return false
	}

	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return true
	}

	for key := range values {
		key = strings.ToLower(key)
		for _, param := range sensitiveParams {
			if strings.Contains(key, param) {
				return true
			}
		}
	}
	return false
}
