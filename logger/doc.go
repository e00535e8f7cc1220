// Package logger provides structured logging for runkit on top of zerolog.
//
// Every runkit package logs through this wrapper so applications get a single
// consistent format. The zero value is not usable; construct loggers with
// New, NewDefault, or Nop, or configure the global logger with Init.
package logger
