package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/kr/pretty"
	"github.com/lsdbus/dbus"
	"github.com/lsdbus/dbus/internal/busctl"
)

type indenter struct {
	prefix     string
	indentNext bool
}

func (i *indenter) f(msg string, args ...any) {
	fmt.Fprintf(i, msg+"\n", args...)
}

func (i *indenter) Write(bs []byte) (int, error) {
	ret := 0
	for len(bs) > 0 {
		if i.indentNext {
			i.indentNext = false
			_, err := io.WriteString(os.Stdout, i.prefix)
			if err != nil {
				return ret, err
			}
		}

		wr := bs
		idx := bytes.IndexByte(bs, '\n')
		if idx >= 0 {
			i.indentNext = true
			wr, bs = bs[:idx+1], bs[idx+1:]
		} else {
			bs = nil
		}

		n, err := os.Stdout.Write(wr)
		ret += n
		if err != nil {
			return ret, err
		}
	}
	return ret, nil
}

func (i *indenter) indent(n int) {
	i.prefix = strings.Repeat("  ", n)
}

func printHex(bs []byte) {
	fmt.Print(hex.Dump(bs))
}

// parseHex decodes hex digits spread over args, ignoring whitespace.
func parseHex(args []string) ([]byte, error) {
	s := strings.Join(strings.Fields(strings.Join(args, " ")), "")
	bs, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("parsing hex: %w", err)
	}
	return bs, nil
}

func printValues(format string, sig dbus.Signature, vals []dbus.Value) error {
	switch format {
	case "text":
		fmt.Printf("%s %s\n", sig, busctl.Format(vals))
	case "pretty":
		fmt.Printf("%# v\n", pretty.Formatter(vals))
	case "json":
		natives := make([]any, 0, len(vals))
		for _, v := range vals {
			natives = append(natives, jsonValue(dbus.Native(v)))
		}
		bs, err := json.MarshalIndent(natives, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(bs))
	case "msgpack":
		bs, err := busctl.MarshalMsgpack(vals)
		if err != nil {
			return err
		}
		if _, err := os.Stdout.Write(bs); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	return nil
}

// jsonValue rewrites the map[any]any values produced by dbus.Native
// into map[string]any, which encoding/json can marshal. Non-finite
// doubles, which JSON cannot represent, become the strings "NaN",
// "+Inf" and "-Inf".
func jsonValue(v any) any {
	switch v := v.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return strconv.FormatFloat(v, 'g', -1, 64)
		}
		return v
	case map[any]any:
		ret := make(map[string]any, len(v))
		for k, e := range v {
			ret[fmt.Sprint(k)] = jsonValue(e)
		}
		return ret
	case []any:
		for i, e := range v {
			v[i] = jsonValue(e)
		}
		return v
	default:
		return v
	}
}
