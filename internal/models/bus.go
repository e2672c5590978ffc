package models

// MaxBatchSize bounds how many rows travel in a single bus message.
const MaxBatchSize = 3

// BusMessage is one unit of work handed to the sink gateway.
type BusMessage struct {
	ParserTag string
	Batch     []Row
}
