// Package history keeps a queryable record of poll cycles.
//
// Every cycle a scheduler runs, successful or not, can be written as a
// Record: when it started, how long it took, whether it changed the live
// state, the error class if it failed, and the JSON patch describing the
// change. Records are written asynchronously by a Recorder so a slow disk
// never delays the poll loop, and a Pruner deletes old records on a cron
// schedule.
//
// Two Storage backends are provided: SQLiteStorage for the CLI's on-disk
// history and MemoryStorage for tests and ephemeral runs.
//
// # Usage
//
//	store, err := history.Open(cfg.History, logger)
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
//	rec := history.NewRecorder(store, nil, logger)
//	defer rec.Close()
//
//	hook := changes.Hook(tracker, sched.View, rec.Record, logger)
package history
