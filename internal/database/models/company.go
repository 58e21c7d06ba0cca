package models

type Company struct {
	Base
	Name     string  `gorm:"not null" json:"name"`
	Location *string `gorm:"type:text" json:"location,omitempty"`
}

func (Company) TableName() string {
	return "companies"
}
