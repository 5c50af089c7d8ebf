package schema

import (
	"encoding/json"
)

// ResetInstructions is the queued form of one reset-instructions
// delivery. It carries the plaintext token, so the queue must be
// treated as sensitive as the mailbox it feeds.
type ResetInstructions struct {
	Email            string `json:"email"`
	Token            string `json:"token"`
	RedirectURL      string `json:"redirect_url"`
	ClientConfigName string `json:"config"`
}

func (r *ResetInstructions) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

func (r *ResetInstructions) Unmarshal(data []byte) error {
	return json.Unmarshal(data, r)
}
