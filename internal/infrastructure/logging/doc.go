// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON lines on stderr, so the desktop shell can forward them
//   - Development: colored console output
//
// Components receive a named child logger:
//
//	logger := logging.NewDefault()
//	terminal.NewManager(bus, logger.For("terminal"))
package logging
