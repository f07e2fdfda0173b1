package client

import (
	"github.com/google/uuid"
)

// Client — контактная/платёжная запись. Живёт отдельно от задач:
// удаление клиента, на которого ссылается задача, оставляет висячий client_id.
type Client struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Owner          uuid.UUID `json:"owner" db:"owner"`
	PersonPhone    string    `json:"person_phone" db:"person_phone"`
	PersonEmail    string    `json:"person_email" db:"person_email"`
	GST            string    `json:"gst" db:"gst"`
	NTN            string    `json:"ntn" db:"ntn"`
	NIC            string    `json:"nic" db:"nic"`
	City           string    `json:"city" db:"city"`
	Area           string    `json:"area" db:"area"`
	BranchName     string    `json:"branch_name" db:"branch_name"`
	BranchAddress  string    `json:"branch_address" db:"branch_address"`
	BillingAddress string    `json:"billing_address" db:"billing_address"`
}

// Label — отображаемое имя клиента: филиал, иначе email, иначе телефон, иначе префикс id.
func (c *Client) Label() string {
	if c.BranchName != "" {
		return c.BranchName
	}
	if c.PersonEmail != "" {
		return c.PersonEmail
	}
	if c.PersonPhone != "" {
		return c.PersonPhone
	}
	return c.ID.String()[:6]
}
