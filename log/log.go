// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log is a thin layer over go-ethereum's slog based logger.
// Package level loggers are bound once with WithContext and resolve the
// root logger at call time, so SetDefault may be called after package init.
package log

import (
	ethlog "github.com/ethereum/go-ethereum/log"
)

// Logger writes key/value pairs to a handler.
type Logger interface {
	New(ctx ...any) Logger
	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Crit(msg string, ctx ...any)
}

type logger struct {
	ctx []any
}

// WithContext returns a logger carrying ctx in every record.
func WithContext(ctx ...any) Logger {
	return &logger{ctx: ctx}
}

func (l *logger) resolve() ethlog.Logger {
	return ethlog.Root().With(l.ctx...)
}

func (l *logger) New(ctx ...any) Logger {
	merged := make([]any, 0, len(l.ctx)+len(ctx))
	merged = append(merged, l.ctx...)
	return &logger{ctx: append(merged, ctx...)}
}

func (l *logger) Trace(msg string, ctx ...any) { l.resolve().Trace(msg, ctx...) }
func (l *logger) Debug(msg string, ctx ...any) { l.resolve().Debug(msg, ctx...) }
func (l *logger) Info(msg string, ctx ...any)  { l.resolve().Info(msg, ctx...) }
func (l *logger) Warn(msg string, ctx ...any)  { l.resolve().Warn(msg, ctx...) }
func (l *logger) Error(msg string, ctx ...any) { l.resolve().Error(msg, ctx...) }
func (l *logger) Crit(msg string, ctx ...any)  { l.resolve().Crit(msg, ctx...) }

var root = WithContext()

// Root returns the root logger.
func Root() Logger { return root }

// SetDefault replaces the root handler used by every logger of this package.
func SetDefault(l ethlog.Logger) { ethlog.SetDefault(l) }

func Trace(msg string, ctx ...any) { root.Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { root.Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { root.Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { root.Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { root.Error(msg, ctx...) }
func Crit(msg string, ctx ...any)  { root.Crit(msg, ctx...) }
