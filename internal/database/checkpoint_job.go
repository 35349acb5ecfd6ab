package database

import (
	"github.com/rs/zerolog"
)

// CheckpointJob truncates the write-ahead log of a database
type CheckpointJob struct {
	db  *DB
	log zerolog.Logger
}

// NewCheckpointJob creates a WAL checkpoint job for db
func NewCheckpointJob(db *DB, log zerolog.Logger) *CheckpointJob {
	return &CheckpointJob{
		db:  db,
		log: log.With().Str("job", "wal_checkpoint").Str("database", db.Name()).Logger(),
	}
}

// Run checkpoints the WAL and logs the resulting file sizes
func (j *CheckpointJob) Run() error {
	if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
		j.log.Error().Err(err).Msg("WAL checkpoint failed")
		return err
	}

	stats, err := j.db.GetStats()
	if err != nil {
		j.log.Warn().Err(err).Msg("Failed to read database stats after checkpoint")
		return nil
	}
	j.log.Debug().
		Int64("size_bytes", stats.SizeBytes).
		Int64("wal_size_bytes", stats.WALSizeBytes).
		Msg("WAL checkpoint complete")
	return nil
}

// Name returns the job name
func (j *CheckpointJob) Name() string {
	return "wal_checkpoint"
}
