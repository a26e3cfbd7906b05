package models

import "errors"

// ErrRoleImmutable is returned when an update tries to flip a user's role.
var ErrRoleImmutable = errors.New("account role cannot be changed")

// All lists every model in migration order (parents before children).
func All() []interface{} {
	return []interface{}{
		&User{},
		&JobPosting{},
		&Question{},
		&QuestionOption{},
		&Application{},
		&Answer{},
	}
}
