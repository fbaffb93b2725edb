package models

// All lists every persisted model in dependency order. Used for sqlite
// auto-migration and tests; Postgres schema comes from goose migrations.
func All() []any {
	return []any{
		&Branch{},
		&Category{},
		&Supplier{},
		&User{},
		&Bicycle{},
		&Rental{},
		&Purchase{},
		&Payment{},
	}
}
