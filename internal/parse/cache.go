package parse

import (
	"github.com/dekarrin/rezi"

	"github.com/dekarrin/formulon/internal/diag"
)

// EncodeBinary serializes t with rezi, letting a caller persist a built
// table across process restarts instead of rebuilding it from the grammar
// every time (spec.md §5's initialization guard only dedups within one
// process), in the style of server/dao/sqlite's rezi.EncBinary(g) save path.
func (t *Table) EncodeBinary() []byte {
	return rezi.EncBinary(t)
}

// DecodeTableBinary reconstructs a Table previously produced by
// EncodeBinary.
func DecodeTableBinary(data []byte) (*Table, error) {
	t := &Table{}
	n, err := rezi.DecBinary(data, t)
	if err != nil {
		return nil, diag.Wrap(diag.ParserTableError, err)
	}
	if n != len(data) {
		return nil, diag.New(diag.ParserTableError, "cached table decode left unconsumed bytes")
	}
	return t, nil
}
