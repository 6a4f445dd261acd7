package ethtool

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mdlayher/netlink/nlenc"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Arguments used to create a debugger.
var debugArgs []string

func init() {
	// Is ethtool debugging enabled?
	s := os.Getenv("ETHNLDEBUG")
	if s == "" {
		return
	}

	debugArgs = strings.Split(s, ",")
}

// A debugger is used to provide debugging information about ethtool
// requests and replies.  A nil *debugger discards everything.
type debugger struct {
	Log      *zap.Logger
	Level    int
	Colorize bool
}

// defaultDebugger returns the debugger configured by ETHNLDEBUG, or nil.
func defaultDebugger() *debugger {
	if len(debugArgs) == 0 {
		return nil
	}

	return newDebugger(debugArgs)
}

// newDebugger creates a debugger by parsing key=value arguments.
func newDebugger(args []string) *debugger {
	d := &debugger{Level: 1}

	format := "console"
	for _, a := range args {
		kv := strings.Split(a, "=")
		if len(kv) != 2 {
			continue
		}

		switch kv[0] {
		case "level":
			level, err := strconv.Atoi(kv[1])
			if err != nil {
				panicf("ethtool: invalid ETHNLDEBUG level: %q", a)
			}
			d.Level = level
		case "format":
			format = kv[1]
		}
	}

	var enc zapcore.Encoder
	switch format {
	case "json":
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	default:
		enc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		d.Colorize = isTerminal(os.Stderr)
	}

	d.Log = zap.New(zapcore.NewCore(enc, zapcore.Lock(os.Stderr), zap.DebugLevel)).
		Named("ethtool")
	return d
}

// loggerDebugger wraps a caller-supplied logger.  The level is taken from
// ETHNLDEBUG when set.
func loggerDebugger(l *zap.Logger) *debugger {
	d := &debugger{Log: l, Level: 1}
	if env := defaultDebugger(); env != nil {
		d.Level = env.Level
	}

	return d
}

// debugf logs msg if d.Level is high enough to print the message.
func (d *debugger) debugf(level int, msg string, fields ...zap.Field) {
	if d == nil || d.Level < level {
		return
	}

	d.Log.Debug(msg, fields...)
}

// dump logs the attribute layout of b if d.Level is high enough.
func (d *debugger) dump(level int, msg string, b []byte) {
	if d == nil || d.Level < level {
		return
	}

	var sb strings.Builder
	dumpAttributes(&sb, b, d.Colorize)
	d.Log.Debug(msg, zap.Int("length", len(b)), zap.String("attributes", sb.String()))
}

// dumpAttributes prints a table of the attribute records in b to w.  Nested
// attributes are walked in place.
func dumpAttributes(w io.Writer, b []byte, colorize bool) {
	fmt.Fprintf(w, "----------------\t------------------\n")
	for i := 0; i < len(b); {
		// Make sure there's at least a header's worth of data to read on each iteration.
		if len(b[i:]) < nlaHeaderLen {
			break
		}

		l := int(nlenc.Uint16(b[i : i+2]))
		k := Kind(nlenc.Uint16(b[i+2 : i+4]))

		if colorize {
			fmt.Fprintf(w, "|\033[1;31m%05d|\033[1;32m%s%s|\033[1;34m%05d\033[0m|\t",
				l,
				ternary(k.IsNested(), "N", "-"),
				ternary(k.IsNetByteOrder(), "B", "-"),
				k.Type())
		} else {
			fmt.Fprintf(w, "|%05d|%s%s|%05d|\t",
				l,
				ternary(k.IsNested(), "N", "-"),
				ternary(k.IsNetByteOrder(), "B", "-"),
				k.Type())
		}
		fmt.Fprintf(w, "|len |flags| type|\n")

		// Malformed records end the dump; the decoder reports them.
		if l < nlaHeaderLen {
			break
		}

		next := i + nlaAlign(l)
		i += nlaHeaderLen

		// Nested attributes are printed as the records that follow.
		if k.IsNested() {
			continue
		}

		for ; i < next && i < len(b); i += 4 {
			var word [4]byte
			copy(word[:], b[i:min(i+4, len(b))])

			fmt.Fprintf(w, "| %.2x %.2x %.2x %.2x  |\t", word[0], word[1], word[2], word[3])
			fmt.Fprintf(w, "|      data      |")
			fmt.Fprintf(w, "\t %s %s %s %s\n",
				printable(word[0]), printable(word[1]),
				printable(word[2]), printable(word[3]),
			)
		}
		i = next
	}
	fmt.Fprintf(w, "----------------\t------------------\n")
}

// printable returns c as a string if it is printable, or a space.
func printable(c byte) string {
	return ternary(strconv.IsPrint(rune(c)), string(rune(c)), " ")
}

// ternary returns iftrue if cond is true, else iffalse.
func ternary(cond bool, iftrue string, iffalse string) string {
	if cond {
		return iftrue
	}
	return iffalse
}

// panicf is a helper to panic with formatted text.
func panicf(format string, a ...interface{}) {
	panic(fmt.Sprintf(format, a...))
}
