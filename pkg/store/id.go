package store

const maxIDLength = 128

// ValidateID checks that a session id is safe to use as a storage address.
// Only alphanumerics, '-' and '_' are allowed, which rules out path
// traversal through the filesystem driver.
func ValidateID(id string) error {
	if id == "" || len(id) > maxIDLength {
		return InvalidIDError{ID: id}
	}

	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return InvalidIDError{ID: id}
		}
	}

	return nil
}
