/*
 * This file is part of the Bit Field Tool ("bitfield")
 * Copyright (C) 2025 Andreas Signer <asigner@gmail.com>
 *
 * bitfield is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * bitfield is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with bitfield.  If not, see <https://www.gnu.org/licenses/>.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/asig/bitfield/internal/field"
	"github.com/asig/bitfield/internal/fuse"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	version = "v0.1"
)

var (
	flagName       = flag.String("name", "value", "Name of the bit field")
	flagValue      = flag.String("value", "0", "Initial value (decimal, 0x, 0o or 0b prefixed)")
	flagLabels     = flag.String("labels", "", "Comma separated bit labels, starting at bit 0")
	flagLabelsFile = flag.String("labels-file", "", "File with one bit label per line, e.g. the members of an enum")
	flagKind       = newKindFlag(field.Uint8, "type", "Integer type (int8, uint8, int16, uint16, int32, uint32, int64, uint64)")
	flagLogLevel   = newLogLevelFlag(zerolog.InfoLevel, "log-level", "Log level (trace, debug, info, warn, error, fatal, panic)")
)

func newKindFlag(value field.Kind, name string, usage string) *field.Kind {
	p := new(field.Kind)
	*p = value
	flag.Var(p, name, usage)
	return p
}

func newLogLevelFlag(value zerolog.Level, name string, usage string) *logLevelFlag {
	p := &logLevelFlag{level: value}
	flag.Var(p, name, usage)
	return p
}

// logLevelFlag implements flag.Value for zerolog.Level
type logLevelFlag struct {
	level zerolog.Level
}

func (f *logLevelFlag) String() string {
	return f.level.String()
}

func (f *logLevelFlag) Set(value string) error {
	level, err := zerolog.ParseLevel(strings.ToLower(value))
	if err != nil {
		return err
	}
	f.level = level
	return nil
}

func (f *logLevelFlag) Get() zerolog.Level {
	return f.level
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s [flags] [command...]

Commands are applied left to right to the same bit field:
   show: Shows the value, its binary form and one toggle per bit (default)
   get <bit>: Prints the state of <bit> as 0 or 1
   set <bit> <0|1>: Sets <bit>
   toggle <bit>: Flips <bit>
   value <value>: Replaces the value
   binary: Prints the value in binary, most significant bit first
   mount <dir>: Exposes the bit field as files in <dir> until interrupted

Flags:
`, os.Args[0])
	flag.PrintDefaults()
	os.Exit(1)
}

func initLogging(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano // Need to keep this, or we won't get millis, no matter what we say in TimeFormat below?
	log.Logger = zerolog.
		New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "2006-01-02T15:04:05.000Z07:00", // "RFC3339Millis"
			NoColor:    false,
		}).
		With().Timestamp().Caller().
		Logger()
}

func loadLabels() (field.Labels, error) {
	if *flagLabelsFile == "" {
		return field.ParseLabels(*flagLabels), nil
	}
	if *flagLabels != "" {
		return nil, fmt.Errorf("-labels and -labels-file are mutually exclusive")
	}
	f, err := os.Open(*flagLabelsFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return field.ReadLabels(f)
}

func parseBit(s string) (int, error) {
	bit, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid bit index %q", s)
	}
	return bit, nil
}

func mount(f *field.Field, dir string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := fuse.Mount(ctx, dir, f); err != nil {
		return err
	}
	fmt.Println(f.Header())
	return nil
}

// run applies the commands in args to f.
func run(f *field.Field, args []string) error {
	if len(args) == 0 {
		return f.Render(os.Stdout)
	}
	pos := 0
	need := func(n int) error {
		if pos+n >= len(args) {
			return fmt.Errorf("%s: expected %d argument(s)", args[pos], n)
		}
		return nil
	}
	for pos < len(args) {
		cmd := args[pos]
		switch cmd {
		case "show":
			if err := f.Render(os.Stdout); err != nil {
				return err
			}
			pos++
		case "binary":
			fmt.Println(f.Binary())
			pos++
		case "get":
			if err := need(1); err != nil {
				return err
			}
			bit, err := parseBit(args[pos+1])
			if err != nil {
				return err
			}
			set, err := f.Bit(bit)
			if err != nil {
				return err
			}
			if set {
				fmt.Println("1")
			} else {
				fmt.Println("0")
			}
			pos += 2
		case "set":
			if err := need(2); err != nil {
				return err
			}
			bit, err := parseBit(args[pos+1])
			if err != nil {
				return err
			}
			v, err := strconv.ParseBool(args[pos+2])
			if err != nil {
				return fmt.Errorf("invalid bit value %q", args[pos+2])
			}
			if err := f.SetBit(bit, v); err != nil {
				return err
			}
			pos += 3
		case "toggle":
			if err := need(1); err != nil {
				return err
			}
			bit, err := parseBit(args[pos+1])
			if err != nil {
				return err
			}
			if err := f.ToggleBit(bit); err != nil {
				return err
			}
			pos += 2
		case "value":
			if err := need(1); err != nil {
				return err
			}
			if err := f.SetValue(args[pos+1]); err != nil {
				return err
			}
			pos += 2
		case "mount":
			if err := need(1); err != nil {
				return err
			}
			if err := mount(f, args[pos+1]); err != nil {
				return err
			}
			pos += 2
		default:
			return fmt.Errorf("unknown command: %s", cmd)
		}
	}
	return nil
}

func main() {
	flag.Usage = usage
	flag.Parse()

	initLogging(flagLogLevel.Get())
	log.Debug().Msgf("Bit Field Tool %s", version)

	labels, err := loadLabels()
	if err != nil {
		log.Error().Err(err).Msg("Can't load labels")
		os.Exit(1)
	}

	f, err := field.New(*flagName, *flagKind, labels)
	if err != nil {
		log.Error().Err(err).Msg("Can't create bit field")
		os.Exit(1)
	}
	if err := f.SetValue(*flagValue); err != nil {
		log.Error().Err(err).Msg("Can't set initial value")
		os.Exit(1)
	}

	if err := run(f, flag.Args()); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
