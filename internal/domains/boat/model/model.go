package model

import "marina/shared/model"

const (
	TableName  = "boats"
	EntityName = "boat"

	FieldID      = "id"
	FieldOwnerID = "owner_id"
	FieldName    = "name"
	FieldStatus  = "status"
)

type Status string

const (
	StatusAvailable        Status = "Available"
	StatusRented           Status = "Rented"
	StatusUnderMaintenance Status = "UnderMaintenance"
)

type Boat struct {
	ID      string `db:"id"`
	OwnerID string `db:"owner_id"`
	Name    string `db:"name"`
	Status  Status `db:"status"`
	model.Metadata
}
