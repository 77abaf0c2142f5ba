package models

import "time"

// ClientState is one durable key/value entry of the storefront client.
type ClientState struct {
	Key       string    `gorm:"column:state_key;primaryKey;size:128"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (ClientState) TableName() string {
	return "client_state"
}
