package db

import "errors"

var (
	errFailedOpenDB      = errors.New("failed to open database")
	errFailedToEnableWAL = errors.New("failed to enable WAL mode")
	errFailedToInit      = errors.New("failed to initialize schema")
	errFailedToInsert    = errors.New("failed to insert")
	errFailedToUpdate    = errors.New("failed to update")
	errFailedToDelete    = errors.New("failed to delete")
	errFailedToQuery     = errors.New("failed to query")
	errFailedToScan      = errors.New("failed to scan")
	errFailedToMarshal   = errors.New("failed to marshal")
	errFailedToUnmarshal = errors.New("failed to unmarshal")
	errFailedToClean     = errors.New("failed to clean")
	errInvalidRecord     = errors.New("invalid record")
)
