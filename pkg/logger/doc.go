// Package logger provides structured logging backed by zerolog.
//
// Components receive a Logger through their options and fall back to the
// process-wide logger returned by GetLogger. Tests use NewNopLogger to
// silence output or NewTestLogger to assert on captured entries.
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//		return err
//	}
//	log := logger.GetLogger().WithField("component", "client")
//	log.DebugWithFields("request sent", map[string]interface{}{"endpoint": "users/1/info/"})
package logger
