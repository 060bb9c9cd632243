package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/danmuck/netmsg/internal/capture"
	"github.com/danmuck/netmsg/internal/config"
	"github.com/danmuck/netmsg/internal/game"
	"github.com/danmuck/netmsg/internal/logging"
	"github.com/danmuck/netmsg/internal/packets"
	"github.com/danmuck/netmsg/internal/protocol"
	"github.com/danmuck/netmsg/internal/transport"
)

const usage = `usage: netmsgctl [flags] <command> [args]

commands:
  ping                       send a ping and print the round trip
  look <x> <y> <z> <item> [stackpos]
                             ask the server to describe an item on a tile
  stats                      request level and progress
  dump <capture>             print the records of a capture file
  init <server|items> <path> write a config template
`

func main() {
	network := flag.String("network", transport.NetworkTCP, "transport network: tcp|kcp")
	addr := flag.String("addr", "127.0.0.1:7171", "server address")
	timeout := flag.Duration("timeout", 5*time.Second, "request timeout")
	force := flag.Bool("force", false, "overwrite an existing file on init")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	logging.ConfigureRuntime()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	var err error
	switch args[0] {
	case "ping", "look", "stats":
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		err = request(ctx, *network, *addr, args)
		cancel()
	case "dump":
		if len(args) != 2 {
			err = fmt.Errorf("dump needs a capture path")
			break
		}
		err = dump(os.Stdout, args[1])
	case "init":
		if len(args) != 3 {
			err = fmt.Errorf("init needs a kind and a path")
			break
		}
		err = config.WriteTemplate(args[2], args[1], *force)
	default:
		err = fmt.Errorf("unknown command %q", args[0])
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "netmsgctl: %v\n", err)
		os.Exit(1)
	}
}

func request(ctx context.Context, network, addr string, args []string) error {
	req := protocol.NewMessage()
	if err := buildRequest(req, args); err != nil {
		return err
	}
	client, err := transport.Dial(ctx, network, addr)
	if err != nil {
		return err
	}
	defer client.Close()

	start := time.Now()
	resp := protocol.NewMessage()
	if err := client.Request(ctx, req, resp); err != nil {
		return err
	}
	return printReply(os.Stdout, args[0], resp, time.Since(start))
}

func buildRequest(m *protocol.Message, args []string) error {
	switch args[0] {
	case "ping":
		return packets.WritePing(m)
	case "stats":
		return packets.WriteStatsRequest(m)
	case "look":
		look, err := parseLook(args[1:])
		if err != nil {
			return err
		}
		return packets.WriteLookAt(m, look)
	default:
		return fmt.Errorf("unknown request %q", args[0])
	}
}

func parseLook(args []string) (packets.LookAt, error) {
	if len(args) < 4 || len(args) > 5 {
		return packets.LookAt{}, fmt.Errorf("look needs x y z item [stackpos]")
	}
	nums := make([]uint64, 5)
	bits := []int{16, 16, 8, 16, 8}
	for i, raw := range args {
		v, err := strconv.ParseUint(raw, 10, bits[i])
		if err != nil {
			return packets.LookAt{}, fmt.Errorf("look argument %d: %w", i+1, err)
		}
		nums[i] = v
	}
	return packets.LookAt{
		Position:   game.Position{X: uint16(nums[0]), Y: uint16(nums[1]), Z: uint8(nums[2])},
		ItemID:     uint16(nums[3]),
		StackIndex: uint8(nums[4]),
	}, nil
}

func printReply(w io.Writer, command string, resp *protocol.Message, rtt time.Duration) error {
	switch command {
	case "ping":
		if err := packets.ReadServerOpcode(resp, packets.OpPong); err != nil {
			return err
		}
		fmt.Fprintf(w, "pong in %s\n", rtt.Round(time.Microsecond))
	case "stats":
		if err := packets.ReadServerOpcode(resp, packets.OpStats); err != nil {
			return err
		}
		stats, err := packets.ReadStats(resp)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "level %d, %.2f%%\n", stats.Level, stats.Percent)
	case "look":
		if err := packets.ReadServerOpcode(resp, packets.OpTextMessage); err != nil {
			return err
		}
		msg, err := packets.ReadTextMessage(resp)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, msg.Text)
		if resp.Remaining() > 0 {
			fmt.Fprintf(w, "(+%d bytes of tile update)\n", resp.Remaining())
		}
	}
	return nil
}

func dump(w io.Writer, path string) error {
	r, err := capture.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	m := protocol.NewMessage()
	for i := 1; ; i++ {
		rec, err := r.Next(m)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		opcode := "-"
		if rec.Length > 0 {
			opcode = fmt.Sprintf("0x%02X", m.GetByte())
		}
		fmt.Fprintf(w, "%4d %s %-3s len=%-5d op=%s body=% x\n",
			i, rec.Time.Format(time.RFC3339Nano), rec.Direction, rec.Length, opcode, m.Body())
	}
}
