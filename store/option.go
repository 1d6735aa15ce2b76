package store

import "log/slog"

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithConfig sets the index configuration; NewSQLiteStore validates it.
func WithConfig(cfg *Config) Option {
	return func(s *SQLiteStore) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// WithLogger sets the logger used to report index builds.
func WithLogger(logger *slog.Logger) Option {
	return func(s *SQLiteStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}
