package domain

import "strings"

// Well-known role names.
const (
	RoleRoot  = "Root"
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// roleSeparators are the separator characters accepted in a required-roles
// expression. They all normalize to "|" before splitting.
var roleSeparators = strings.NewReplacer(",", "|", ";", "|", ":", "|")

// IsInRoles reports whether any of the caller's roles appears in the
// required-roles expression. The expression lists role names joined by "|"
// (or any of "," ";" ":", which normalize to "|"); membership in any one of
// them is enough. A caller with no roles never passes. Blank fragments in
// the expression are ignored. Comparison is case-insensitive.
func IsInRoles(callerRoles []string, requiredExpr string) bool {
	if len(callerRoles) == 0 {
		return false
	}

	required := strings.Split(roleSeparators.Replace(requiredExpr), "|")
	for _, want := range required {
		want = strings.TrimSpace(want)
		if want == "" {
			continue
		}
		for _, have := range callerRoles {
			if strings.EqualFold(strings.TrimSpace(have), want) {
				return true
			}
		}
	}
	return false
}
