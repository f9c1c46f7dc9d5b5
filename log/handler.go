// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	ethlog "github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
)

// Log levels, from most to least verbose.
const (
	LevelTrace = ethlog.LevelTrace
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
	LevelCrit  = ethlog.LevelCrit
)

// Output formats accepted by NewHandler.
const (
	FormatTerminal = "terminal"
	FormatJSON     = "json"
	FormatLogfmt   = "logfmt"
)

// LevelFromVerbosity maps the classic 0 (crit) .. 5 (trace) verbosity to a level.
func LevelFromVerbosity(verbosity int) slog.Level {
	switch {
	case verbosity <= 0:
		return LevelCrit
	case verbosity == 1:
		return LevelError
	case verbosity == 2:
		return LevelWarn
	case verbosity == 3:
		return LevelInfo
	case verbosity == 4:
		return LevelDebug
	default:
		return LevelTrace
	}
}

// NewHandler builds a handler writing records at or above level in the given format.
// Terminal output is coloured when w is a tty.
func NewHandler(format string, w io.Writer, level slog.Level) (slog.Handler, error) {
	switch format {
	case "", FormatTerminal:
		return ethlog.NewTerminalHandlerWithLevel(w, level, useColor(w)), nil
	case FormatJSON:
		return ethlog.JSONHandlerWithLevel(w, level), nil
	case FormatLogfmt:
		return ethlog.LogfmtHandlerWithLevel(w, level), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// Setup installs a handler built by NewHandler as the root handler.
func Setup(format string, w io.Writer, level slog.Level) error {
	h, err := NewHandler(format, w, level)
	if err != nil {
		return err
	}
	SetDefault(ethlog.NewLogger(h))
	return nil
}

// Discard silences every logger.
func Discard() {
	SetDefault(ethlog.NewLogger(ethlog.DiscardHandler()))
}

func useColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NewLogger returns a logger writing to h, suitable for SetDefault.
func NewLogger(h slog.Handler) ethlog.Logger {
	return ethlog.NewLogger(h)
}
