package models

import "gorm.io/gorm"

// All lists every model in dependency order for AutoMigrate
func All() []interface{} {
	return []interface{}{
		&User{},
		&CylinderType{},
		&CO2Order{},
		&CylinderUnit{},
		&OrderStatusHistory{},
		&Message{},
	}
}

// Migrate creates or updates every table
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
