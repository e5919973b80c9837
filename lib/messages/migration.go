// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package messages

// Lane storage format versions. Version 0 predates the lane State field;
// version 1 carries it.
const (
	laneStorageVersionV0 uint32 = 0
	// LaneStorageVersion is the current storage format version
	LaneStorageVersion uint32 = 1
)

// MigrateToV1 upgrades lane storage from version 0 to version 1, marking
// every existing lane Opened. The migration is one-shot and idempotent: it
// runs only when the stored version is exactly 0 and bumps it to 1
// afterwards. Returns true if the migration ran.
func MigrateToV1(storage ModuleStorage) (bool, error) {
	switch storage.Version() {
	case laneStorageVersionV0:
	case LaneStorageVersion:
		return false, nil
	default:
		return false, ErrUnsupportedStorageVersion
	}

	for _, lane := range storage.Lanes() {
		outbound := storage.OutboundLane(lane)
		outboundData := outbound.Data()
		outboundData.State = LaneOpened
		outbound.SetData(outboundData)

		inbound := storage.InboundLane(lane)
		inboundData := inbound.Data()
		inboundData.State = LaneOpened
		inbound.SetData(inboundData)
	}

	storage.SetVersion(LaneStorageVersion)
	logger.Info("migrated lane storage", "from", laneStorageVersionV0,
		"to", LaneStorageVersion)
	return true, nil
}
