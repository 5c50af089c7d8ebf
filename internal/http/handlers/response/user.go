package response

import (
	"passgate/internal/core/domain/user"
	"time"
)

type User struct {
	ID                  int64      `json:"id"`
	UID                 string     `json:"uid"`
	Email               *string    `json:"email,omitempty"`
	Provider            string     `json:"provider"`
	AllowPasswordChange bool       `json:"allow_password_change"`
	CreatedAt           time.Time  `json:"created_at"`
	ConfirmedAt         *time.Time `json:"confirmed_at,omitempty"`
}

func (u *User) FromDomainUser(du user.User) {
	u.ID = int64(du.ID)
	if du.Email.IsPresent {
		email := string(du.Email.Value)
		u.UID = email
		u.Email = &email
	}
	u.Provider = string(du.Provider)
	u.AllowPasswordChange = du.AllowPasswordChange
	u.CreatedAt = du.CreatedAt
	if du.ConfirmedAt.IsPresent {
		confirmedAt := du.ConfirmedAt.Value
		u.ConfirmedAt = &confirmedAt
	}
}
