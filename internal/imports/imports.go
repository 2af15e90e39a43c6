// Package imports provides the spreadsheet reconciliation pipeline.
//
// Each supported upload source (the ERP export and the marketplace seller
// portal reports) registers a SourceDefinition describing where its data
// lives in the workbook, which columns identify a row, and how a row is
// merged into the catalog. Service.Run drives the shared pipeline around
// those definitions: extract rows, process them one by one inside a single
// transaction, write an error report for the failures, and persist an
// audit record.
package imports

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mpstock/catalog/internal/catalog"
	"github.com/mpstock/catalog/internal/xlsxio"
)

// Outcome classifies what processing one row did to the store.
type Outcome int

const (
	// OutcomeSkipped means the row produced no mutation. Used for
	// boilerplate rows, unknown-barcode rows on tolerant sources, and
	// no-op price updates.
	OutcomeSkipped Outcome = iota
	OutcomeAdded
	OutcomeUpdated
)

// ProcessFunc merges one extracted row into the catalog within the
// import's transaction. A returned error marks the row as failed; the
// pipeline records it and moves on.
type ProcessFunc func(ctx context.Context, tx catalog.Tx, row xlsxio.Row) (Outcome, error)

// SourceDefinition declares one import source: workbook coordinates,
// identifying columns for error reporting, and the per-row merge logic.
type SourceDefinition struct {
	// Tag is the stable identifier used in URLs and audit records.
	Tag string

	// Label is the human-readable source name.
	Label string

	// Sheet and HeaderRow are zero-based workbook coordinates.
	Sheet     int
	HeaderRow int

	// KeyColumns name the columns whose values identify a row in the
	// error report.
	KeyColumns []string

	Process ProcessFunc
}

var (
	registry   = make(map[string]SourceDefinition)
	registryMu sync.RWMutex
)

// Register adds a source definition to the registry.
// Panics if a source with the same tag is already registered.
func Register(def SourceDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Tag]; exists {
		panic(fmt.Sprintf("import source already registered: %s", def.Tag))
	}
	registry[def.Tag] = def
}

// Get returns a source definition by tag.
// Returns false if not found.
func Get(tag string) (SourceDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[tag]
	return def, ok
}

// All returns all registered source definitions, sorted by tag for
// consistent ordering.
func All() []SourceDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]SourceDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Tag < result[j].Tag
	})

	return result
}
