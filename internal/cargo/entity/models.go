package entity

// Migrations are the statements AutoMigrate cannot express.
var Migrations = []string{
	`CREATE SEQUENCE IF NOT EXISTS carga_code_seq START 1`,
}

// Models lists every table the service owns, in creation order.
func Models() []interface{} {
	return []interface{}{
		&Shipment{},
		&Article{},
		&Box{},
		&BoxScan{},
	}
}
