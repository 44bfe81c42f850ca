package domain

// ProgressStatus is the phase a transfer is in when a progress update
// is emitted. The set is closed; sinks can switch exhaustively.
type ProgressStatus string

const (
	// ProgressRunning is a normal mid-transfer update.
	ProgressRunning ProgressStatus = "progress"

	// ProgressCompleted is the final update of a successful transfer.
	ProgressCompleted ProgressStatus = "completed"

	// ProgressError is the final update of a failed transfer.
	ProgressError ProgressStatus = "error"
)

// ProgressSink receives transfer progress updates. Implementations range
// from a no-op to a terminal bar renderer; all sit behind this one method.
type ProgressSink interface {
	OnProgress(update ProgressUpdate)
}

// ProgressUpdate is one observation of a running transfer.
type ProgressUpdate struct {
	// BytesDone is the number of bytes transferred so far.
	BytesDone int64
	// BytesTotal is the total transfer size, 0 when unknown.
	BytesTotal int64
	// Percent is BytesDone/BytesTotal in [0,100], 0 when the total is unknown.
	Percent float64
	// Rate is the observed transfer rate in bytes per second.
	Rate float64
	// Status says whether the transfer is running, done, or failed.
	Status ProgressStatus
	// Name is the file name being transferred.
	Name string
}
