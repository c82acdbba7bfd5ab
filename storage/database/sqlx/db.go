package sqlxrepos

import (
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

// Wrap binds the sqlx extensions to an open connection.
func Wrap(db *sql.DB) *sqlx.DB {
	return sqlx.NewDb(db, "postgres")
}

func toJSON(v interface{}) (null.JSON, error) {
	if v == nil {
		return null.JSON{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return null.JSON{}, errors.Wrap(err, "encoding json column")
	}
	return null.JSONFrom(b), nil
}

func fromJSON(j null.JSON, dst interface{}) error {
	if !j.Valid || len(j.JSON) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(j.JSON, dst), "decoding json column")
}
