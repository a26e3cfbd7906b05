package services

// Identity is the authenticated caller, passed explicitly into every operation.
type Identity struct {
	UserID    uint
	Username  string
	IsCompany bool
}

func (id Identity) requireCompany() error {
	if id.UserID == 0 || !id.IsCompany {
		return ErrForbiddenRole
	}
	return nil
}

func (id Identity) requireStudent() error {
	if id.UserID == 0 || id.IsCompany {
		return ErrForbiddenRole
	}
	return nil
}
