package repositories

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"yabe/app/models"
)

const (
	// Key prefixes for secondary indexes
	seqKeyPrefix    = "seq:"
	uniqueKeyPrefix = "uniq:"
	refKeyPrefix    = "ref:"
)

// entityKey is zero-padded so that badger's lexical iteration order is the
// insertion order of the entities.
func entityKey(kind models.Kind, id int) []byte {
	return []byte(fmt.Sprintf("%s:%010d", kind, id))
}

func entityPrefix(kind models.Kind) []byte {
	return []byte(string(kind) + ":")
}

func seqKey(kind models.Kind) []byte {
	return []byte(seqKeyPrefix + string(kind))
}

func uniqueKey(kind models.Kind, field, value string) []byte {
	return []byte(fmt.Sprintf("%s%s:%s:%s", uniqueKeyPrefix, kind, field, value))
}

// refPrefix selects every child of kind whose field points at parentID.
func refPrefix(kind models.Kind, field string, parentID int) []byte {
	return []byte(fmt.Sprintf("%s%s:%s:%010d:", refKeyPrefix, kind, field, parentID))
}

func refKey(kind models.Kind, field string, parentID, id int) []byte {
	return append(refPrefix(kind, field, parentID), []byte(fmt.Sprintf("%010d", id))...)
}

func encodeID(id int) []byte {
	return []byte{byte(id >> 24), byte(id >> 16), byte(id >> 8), byte(id)}
}

func decodeID(val []byte) (int, error) {
	if len(val) != 4 {
		return 0, errors.Errorf("malformed id value of %d bytes", len(val))
	}
	return int(val[0])<<24 | int(val[1])<<16 | int(val[2])<<8 | int(val[3]), nil
}

// getNextID gets the next available ID for a given sequence key
func getNextID(txn *badger.Txn, key []byte) (int, error) {
	var id int
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		id = 1
	} else if err != nil {
		return 0, errors.Wrap(err, "failed to get sequence")
	} else {
		err = item.Value(func(val []byte) error {
			id, err = decodeID(val)
			return err
		})
		if err != nil {
			return 0, errors.Wrap(err, "failed to parse sequence")
		}
		id++
	}

	if err := txn.Set(key, encodeID(id)); err != nil {
		return 0, errors.Wrap(err, "failed to update sequence")
	}

	return id, nil
}

// marshalEntity marshals an entity to JSON
func marshalEntity(entity interface{}) ([]byte, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal entity")
	}
	return data, nil
}

// unmarshalEntity unmarshals JSON data into an entity
func unmarshalEntity(data []byte, entity interface{}) error {
	if err := json.Unmarshal(data, entity); err != nil {
		return errors.Wrap(err, "failed to unmarshal entity")
	}
	return nil
}
