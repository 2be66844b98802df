package goCred

// Authorize reports whether identity holds one of the required roles. With
// no roles given any authenticated identity passes. ADMIN satisfies every
// requirement and MODERATOR satisfies USER.
func Authorize(identity Identity, required ...Role) bool {
	if identity.AccountID == 0 || !identity.Role.Valid() {
		return false
	}
	if len(required) == 0 {
		return true
	}
	have := roleRank(identity.Role)
	for _, r := range required {
		if have >= roleRank(r) {
			return true
		}
	}
	return false
}

func roleRank(r Role) int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleModerator:
		return 2
	case RoleUser:
		return 1
	}
	return 99
}
