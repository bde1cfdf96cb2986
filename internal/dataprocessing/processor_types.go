package dataprocessing

import (
	"sheetclean/pkg/contracts/domain"
)

// Processor defines the interface for table cleaning operations
type Processor interface {
	// Process takes a parsed table and returns the processed table
	Process(table *domain.Table) (*domain.Table, error)
}

var _ Processor = (*Imputer)(nil)
