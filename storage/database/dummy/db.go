package dummydb

import (
	"sync"

	"github.com/escolarhq/escolar/core/institution"
)

type (
	institutionTable struct {
		sync.RWMutex
		table map[string]*institution.Institution
		stats map[string]institution.Statistics
	}

	DB struct {
		institution *institutionTable
	}
)

func Open() (*DB, error) {
	db := &DB{
		institution: &institutionTable{
			table: make(map[string]*institution.Institution),
			stats: make(map[string]institution.Statistics),
		},
	}
	return db, nil
}
