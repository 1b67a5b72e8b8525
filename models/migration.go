package models

import (
	"log"

	"github.com/HeshMedia/insurezeal-sub005/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&CutPayTransaction{},
		&InsurerMapping{},
		&UniversalRecord{},
		&ReconciliationRun{}, &ReconciliationRowChange{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
