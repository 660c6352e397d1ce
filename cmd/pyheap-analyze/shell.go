package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/ivanyu/pyheap-go/internal/address"
	"github.com/ivanyu/pyheap-go/internal/config"
	"github.com/ivanyu/pyheap-go/internal/strrepr"
)

func newShellCmd(cfg *config.Config) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive object/thread browser over a snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}

			a, err := openAnalysis(cmd.Context(), file, *cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			return runShell(a)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path to the heap snapshot (required)")
	return cmd
}

func runShell(a *analysis) error {
	rl, err := readline.New("pyheap> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	resolver := strrepr.New(a.reader)

	fmt.Println("commands: object <addr-hex>, thread <name>, total, quit")
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "quit", "exit":
			return nil
		case "total":
			fmt.Printf("%d threads, %d objects\n", len(a.heap.Threads), len(a.heap.Objects))
		case "object":
			if len(fields) < 2 {
				fmt.Println("usage: object <addr-hex>")
				continue
			}
			showObject(a, resolver, fields[1])
		case "thread":
			if len(fields) < 2 {
				fmt.Println("usage: thread <name>")
				continue
			}
			showThread(a, fields[1])
		default:
			fmt.Printf("unknown command %q\n", fields[0])
		}
	}
}

func showObject(a *analysis, resolver *strrepr.Resolver, hexAddr string) {
	n, err := strconv.ParseUint(strings.TrimPrefix(hexAddr, "0x"), 16, 64)
	if err != nil {
		fmt.Printf("can't parse address %q\n", hexAddr)
		return
	}
	addr := address.Address(n)
	obj, ok := a.heap.Objects[addr]
	if !ok {
		fmt.Printf("no object at %s\n", addr)
		return
	}

	fmt.Printf("address   %s\n", obj.Address)
	fmt.Printf("type      %s\n", a.heap.Types[obj.Type])
	fmt.Printf("size      %d\n", obj.Size)
	fmt.Printf("retained  %d\n", a.result.Objects[addr])
	fmt.Printf("referents %d\n", len(obj.Referents))

	if s, ok, err := resolver.Resolve(addr); err == nil && ok {
		fmt.Printf("str_repr  %s\n", s)
	}
}

func showThread(a *analysis, name string) {
	for i := range a.heap.Threads {
		if a.heap.Threads[i].Name != name {
			continue
		}
		t := &a.heap.Threads[i]
		fmt.Printf("alive     %v\n", t.Alive)
		fmt.Printf("daemon    %v\n", t.Daemon)
		fmt.Printf("frames    %d\n", len(t.StackTrace))
		fmt.Printf("retained  %d\n", a.result.Threads[name])
		return
	}
	fmt.Printf("no thread named %q\n", name)
}
