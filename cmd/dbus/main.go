package main

import (
	"context"
	"fmt"
	"maps"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/creachadair/command"
	"github.com/creachadair/flax"
	"github.com/lsdbus/dbus"
	"github.com/lsdbus/dbus/dbustest"
	"github.com/lsdbus/dbus/fragments"
	"github.com/lsdbus/dbus/internal/busctl"
	"github.com/lsdbus/dbus/wire"
)

var globalArgs struct {
	Order  string `flag:"order,default=little,Byte order for encoding (little, big or native)"`
	Format string `flag:"format,default=text,Output format for values (text, pretty, json or msgpack)"`
}

var encodeArgs struct {
	Trace bool `flag:"trace,Print the codec's sink calls"`
}

var buildArgs struct {
	Type        string `flag:"type,default=call,Message type (call, return, error or signal)"`
	Serial      uint   `flag:"serial,default=1,Message serial"`
	ReplySerial uint   `flag:"reply-serial,Serial of the message being replied to"`
	Path        string `flag:"path,Object path"`
	Interface   string `flag:"interface,Interface name"`
	Member      string `flag:"member,Method or signal name"`
	ErrorName   string `flag:"error-name,Error name"`
	Destination string `flag:"dest,Destination bus name"`
	Sender      string `flag:"sender,Sender bus name"`
	NoReply     bool   `flag:"no-reply,Set the no-reply-expected flag"`
}

func main() {
	root := &command.C{
		Name:     "dbus",
		Usage:    "command args...",
		SetFlags: command.Flags(flax.MustBind, &globalArgs),
		Commands: []*command.C{
			{
				Name:  "sig",
				Usage: "sig signature...",
				Help: `Check type signatures.

Each signature is validated, and its complete types are listed.`,
				Run: command.Adapt(runSig),
			},
			{
				Name:  "encode",
				Usage: "encode signature [args...]",
				Help: `Encode values to the DBus wire format.

The values are given in busctl syntax: basic values are one argument
each, arrays are an element count followed by the elements, and
variants are a signature followed by the value. The encoded body is
printed as a hex dump.`,
				SetFlags: command.Flags(flax.MustBind, &encodeArgs),
				Run:      command.Adapt(runEncode),
			},
			{
				Name:  "decode",
				Usage: "decode signature hex",
				Help: `Decode a message body from the DBus wire format.

The body is given as hex, and may contain whitespace.`,
				Run: command.Adapt(runDecode),
			},
			{
				Name:  "message",
				Usage: "message args...",
				Commands: []*command.C{
					{
						Name:     "build",
						Usage:    "build [signature [args...]]",
						Help:     "Build a complete DBus message and print it as a hex dump.",
						SetFlags: command.Flags(flax.MustBind, &buildArgs),
						Run:      command.Adapt(runMessageBuild),
					},
					{
						Name:  "parse",
						Usage: "parse hex",
						Help:  "Parse a complete DBus message given as hex.",
						Run:   command.Adapt(runMessageParse),
					},
				},
			},
			command.HelpCommand(nil),
			command.VersionCommand(),
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	env := root.NewEnv(nil).SetContext(ctx)
	command.RunOrFail(env, os.Args[1:])
}

func runSig(env *command.Env, sigs ...string) error {
	if len(sigs) == 0 {
		return env.Usagef("sig requires at least one signature.")
	}
	var out indenter
	for _, s := range sigs {
		out.indent(0)
		sig, err := dbus.ParseSignature(s)
		if err != nil {
			out.f("%q: %v", s, err)
			continue
		}
		elems, err := sig.Elements()
		if err != nil {
			return err
		}
		out.f("%q: %d complete types", s, len(elems))
		out.indent(1)
		for _, e := range elems {
			out.f("%s (alignment %d)", e, dbus.Alignment(e[0]))
		}
	}
	return nil
}

func byteOrder() (fragments.ByteOrder, error) {
	return fragments.ParseByteOrder(globalArgs.Order)
}

func runEncode(env *command.Env, sig string, args ...string) error {
	order, err := byteOrder()
	if err != nil {
		return env.Usagef("%v", err)
	}
	vals, err := busctl.Parse(sig, args)
	if err != nil {
		return fmt.Errorf("parsing arguments: %w", err)
	}

	if encodeArgs.Trace {
		rec := &dbustest.Recorder{}
		if err := dbus.Encode(rec, sig, vals); err != nil {
			return err
		}
		fmt.Print(dbustest.Format(rec.Events))
	}

	sink := wire.NewSink(order)
	if err := dbus.Encode(sink, sig, vals); err != nil {
		return err
	}
	fmt.Printf("%s, signature %q, %d bytes\n", order, sink.Signature(), len(sink.Bytes()))
	if fds := sink.FDs(); len(fds) > 0 {
		fmt.Printf("unix fds: %v\n", fds)
	}
	printHex(sink.Bytes())
	return nil
}

func runDecode(env *command.Env, sig string, hexes ...string) error {
	order, err := byteOrder()
	if err != nil {
		return env.Usagef("%v", err)
	}
	bs, err := parseHex(hexes)
	if err != nil {
		return err
	}
	src, err := wire.NewSource(bs, order, dbus.Signature(sig), nil)
	if err != nil {
		return err
	}
	vals, err := dbus.Decode(src)
	if err != nil {
		return fmt.Errorf("decoding body: %w", err)
	}
	return printValues(globalArgs.Format, dbus.Signature(sig), vals)
}

func parseMessageType(s string) (wire.MessageType, error) {
	switch strings.ToLower(s) {
	case "call", "method_call":
		return wire.MethodCall, nil
	case "return", "method_return":
		return wire.MethodReturn, nil
	case "error":
		return wire.Error, nil
	case "signal":
		return wire.Signal, nil
	default:
		return 0, fmt.Errorf("unknown message type %q", s)
	}
}

func runMessageBuild(env *command.Env, args ...string) error {
	order, err := byteOrder()
	if err != nil {
		return env.Usagef("%v", err)
	}
	typ, err := parseMessageType(buildArgs.Type)
	if err != nil {
		return env.Usagef("%v", err)
	}

	msg := wire.Message{
		Type:        typ,
		Serial:      uint32(buildArgs.Serial),
		ReplySerial: uint32(buildArgs.ReplySerial),
		Path:        dbus.ObjectPath(buildArgs.Path),
		Interface:   buildArgs.Interface,
		Member:      buildArgs.Member,
		ErrorName:   buildArgs.ErrorName,
		Destination: buildArgs.Destination,
		Sender:      buildArgs.Sender,
	}
	if buildArgs.NoReply {
		msg.Flags |= wire.NoReplyExpected
	}
	if len(args) > 0 {
		msg.Signature = dbus.Signature(args[0])
		msg.Body, err = busctl.Parse(args[0], args[1:])
		if err != nil {
			return fmt.Errorf("parsing arguments: %w", err)
		}
	}

	bs, fds, err := msg.Marshal(order)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s, %d bytes\n", order, msg.Type, len(bs))
	if len(fds) > 0 {
		fmt.Printf("unix fds: %v\n", fds)
	}
	printHex(bs)
	return nil
}

func runMessageParse(env *command.Env, hexes ...string) error {
	bs, err := parseHex(hexes)
	if err != nil {
		return err
	}
	if len(bs) == 0 {
		return env.Usagef("parse requires a message.")
	}
	msg, err := wire.ParseMessage(bs, nil)
	if err != nil {
		return err
	}

	var out indenter
	out.f("%s serial=%d flags=%#x", msg.Type, msg.Serial, byte(msg.Flags))
	out.indent(1)
	field := func(name string, v any, set bool) {
		if set {
			out.f("%s: %v", name, v)
		}
	}
	field("path", msg.Path, msg.Path != "")
	field("interface", msg.Interface, msg.Interface != "")
	field("member", msg.Member, msg.Member != "")
	field("error", msg.ErrorName, msg.ErrorName != "")
	field("reply to", msg.ReplySerial, msg.ReplySerial != 0)
	field("destination", msg.Destination, msg.Destination != "")
	field("sender", msg.Sender, msg.Sender != "")
	field("unix fds", msg.UnixFDs, msg.UnixFDs != 0)
	for _, code := range slices.Sorted(maps.Keys(msg.Unknown)) {
		out.f("field %d: %s", code, busctl.Format([]dbus.Value{msg.Unknown[code]}))
	}
	field("signature", msg.Signature, true)
	if len(msg.Body) == 0 {
		return nil
	}
	out.indent(0)
	return printValues(globalArgs.Format, msg.Signature, msg.Body)
}
