package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// jsonValue сериализует значение jsonb колонки. empty пишется вместо nil.
func jsonValue(v interface{}, isNil bool, empty string) (driver.Value, error) {
	if isNil {
		return []byte(empty), nil
	}
	return json.Marshal(v)
}

// scanJSON читает jsonb колонку в dst. NULL оставляет dst нетронутым и возвращает false.
func scanJSON(src interface{}, dst interface{}, column string) (bool, error) {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return false, nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return false, fmt.Errorf("%s: неподдерживаемый тип значения %T", column, src)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("%s: %w", column, err)
	}
	return true, nil
}
