package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/obstore/internal/ir"
)

// marshalItem converts one side of a change to JSON TEXT. An absent side is
// stored as SQL NULL.
func marshalItem(it *ir.Item) (sql.NullString, error) {
	if it == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(it)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal item %d: %w", it.Index, err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// unmarshalItem parses a JSON TEXT column back into an item.
// Integers go through json.Number, so values past 2^53 keep their precision.
func unmarshalItem(col sql.NullString) (*ir.Item, error) {
	if !col.Valid {
		return nil, nil
	}
	var it ir.Item
	if err := json.Unmarshal([]byte(col.String), &it); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	if it.Fields == nil {
		it.Fields = ir.IRObject{}
	}
	return &it, nil
}
