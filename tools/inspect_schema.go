package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/localnerve/blockrelease/internal/config"
	"github.com/localnerve/blockrelease/internal/database"
	"github.com/localnerve/blockrelease/internal/models"
	"gorm.io/gorm/logger"
)

// Prints the tables and indexes AutoMigrate creates, using SQLite.
func main() {
	path := flag.String("db", ":memory:", "SQLite database file")
	flag.Parse()

	db, err := database.Connect(&config.Config{
		DBType:               "sqlite",
		DBAppDatabase:        *path,
		DBAppConnectionLimit: 1,
	}, logger.Silent)
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		log.Fatal(err)
	}

	for _, model := range models.All() {
		stmt := db.Model(model).Statement
		if err := stmt.Parse(model); err != nil {
			log.Fatal(err)
		}
		table := stmt.Schema.Table

		fmt.Printf("\n=== Table: %s ===\n", table)
		var schema string
		db.Raw("SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&schema)
		fmt.Println(schema)

		indexes, err := db.Migrator().GetIndexes(model)
		if err != nil {
			log.Fatal(err)
		}
		for _, idx := range indexes {
			unique, _ := idx.Unique()
			fmt.Printf("  index %s %v unique=%t\n", idx.Name(), idx.Columns(), unique)
		}
	}
}
