package models

import "time"

// AssetStatus is the lifecycle status of an asset.
type AssetStatus string

const (
	AssetAvailable AssetStatus = "available"
	AssetAssigned  AssetStatus = "assigned"
	AssetRepair    AssetStatus = "repair"
	AssetRetired   AssetStatus = "retired"
	AssetLost      AssetStatus = "lost"
)

func (s AssetStatus) Valid() bool {
	switch s {
	case AssetAvailable, AssetAssigned, AssetRepair, AssetRetired, AssetLost:
		return true
	}
	return false
}

// Categories is the fixed set of asset types.
var Categories = []string{
	"Laptop", "PC", "AllInOne", "Monitor", "Printer", "Tablet",
	"Radio", "Server", "Accessory", "Software", "Other",
}

// Asset is a tracked piece of equipment. Software holds the installed-software
// map as JSON text.
type Asset struct {
	ID           int64       `json:"id"`
	AssetCode    string      `json:"asset_code"`
	Name         string      `json:"name"`
	Type         string      `json:"type"`
	Brand        string      `json:"brand,omitempty"`
	Model        string      `json:"model,omitempty"`
	SerialNumber string      `json:"serial_number,omitempty"`
	PurchaseDate *time.Time  `json:"purchase_date,omitempty"`
	Price        *float64    `json:"price,omitempty"`
	Status       AssetStatus `json:"status"`
	Location     string      `json:"location,omitempty"`
	ImagePath    string      `json:"image_path,omitempty"`
	Notes        string      `json:"notes,omitempty"`
	AssignedTo   string      `json:"assigned_to,omitempty"`
	Signature    string      `json:"signature,omitempty"`
	Spec         string      `json:"spec,omitempty"`
	ReceivedDate *time.Time  `json:"received_date,omitempty"`
	ReturnDate   *time.Time  `json:"return_date,omitempty"`
	Email        string      `json:"email,omitempty"`
	IsPC         bool        `json:"is_pc"`
	IsMobile     bool        `json:"is_mobile"`
	Software     string      `json:"software,omitempty"`
	CreatedAt    *time.Time  `json:"created_at,omitempty"`
}

// AssetFilter narrows an asset listing. Empty fields are ignored.
type AssetFilter struct {
	Search string
	Type   string
	Status AssetStatus
}
