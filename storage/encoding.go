package storage

import (
	"encoding/json"

	"github.com/NethermindEth/basesociety/core"
)

func encodeRecord(record core.AgentRecord) ([]byte, error) {
	return json.Marshal(record)
}

func decodeRecord(data []byte) (core.AgentRecord, error) {
	var record core.AgentRecord
	err := json.Unmarshal(data, &record)
	return record, err
}
