package models

import (
	"log"

	"github.com/wagelink/workpay_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&User{}, &RegistrarConfig{},
		&EmployeeRegistration{}, &AttendanceRecord{},
		&EscrowRecord{}, &AssetAccount{},
		&EventRecord{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
