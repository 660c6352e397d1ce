// Command pyheap-analyze is the collaborator CLI over the PyHeap snapshot
// codec and retained-heap analyzer: retained-heap prints the same report
// the original pyheap-ui backend computed, export emits the UI's JSON
// data contract, and shell is an interactive object/thread browser. The
// command layout follows golang-debug's cmd/viewcore (flag-gated
// subcommands, text/tabwriter reports), with cobra used for the
// subcommands' own flag sets the way viewcore's objref.go uses it for
// objref alone.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
