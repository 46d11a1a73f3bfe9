package dao

import "gorm.io/gorm"

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Event{},
		&Permission{},
		&Attendance{},
		&Song{},
		&Announcement{},
		&Contribution{},
		&ContributionPayment{},
	)
}

// dropAllTables is used by integration tests to start from a clean schema.
func dropAllTables(db *gorm.DB) error {
	return db.Migrator().DropTable(
		&ContributionPayment{},
		&Contribution{},
		&Announcement{},
		&Song{},
		&Attendance{},
		&Permission{},
		&Event{},
		&User{},
	)
}
