// Command fcachectl is the external client CLI in front of pkg/client: a
// single-shot program that connects to one fcached instance, performs
// whatever combination of write/read/lock/unlock/close operations its
// flags name, and exits.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	socket string

	writeDir   string
	writeFiles []string
	victimsDir string

	readFiles []string
	readN     int
	readNSet  bool
	readDir   string

	intervalMS int

	lockFiles   []string
	unlockFiles []string
	closeFiles  []string

	verbose bool
}

func run() error {
	var o options

	root := cobra.Command{
		Use:   "fcachectl",
		Short: "Client CLI for fcached, a multi-client in-memory file-storage cache",

		SilenceUsage:  true,
		SilenceErrors: true,

		RunE: func(cmd *cobra.Command, _ []string) error {
			o.readNSet = cmd.Flags().Changed("read-n")
			return (&session{opts: o}).run()
		},
	}

	flags := root.Flags()
	flags.StringVarP(&o.socket, "socket", "f", "", "unix socket path of the fcached instance")
	flags.StringVarP(&o.writeDir, "write-dir", "w", "", "write n files found recursively under dir, as dir[,n]")
	flags.StringArrayVarP(&o.writeFiles, "write", "W", nil, "write a local file's content under its basename (repeatable)")
	flags.StringVarP(&o.victimsDir, "victims-dir", "D", "", "directory to persist any evicted victims from a write")
	flags.StringArrayVarP(&o.readFiles, "read", "r", nil, "read a cached entry by name (repeatable)")
	flags.IntVarP(&o.readN, "read-n", "R", 0, "read up to n cached entries (0 or omitted means all)")
	flags.Lookup("read-n").NoOptDefVal = "0"
	flags.StringVarP(&o.readDir, "read-dir", "d", "", "directory to persist files retrieved by -r/-R")
	flags.IntVarP(&o.intervalMS, "interval", "t", 0, "milliseconds to wait between requests")
	flags.StringArrayVarP(&o.lockFiles, "lock", "l", nil, "lock a cached entry by name (repeatable)")
	flags.StringArrayVarP(&o.unlockFiles, "unlock", "u", nil, "unlock a cached entry by name (repeatable)")
	flags.StringArrayVarP(&o.closeFiles, "close", "c", nil, "close a cached entry by name (repeatable)")
	flags.BoolVarP(&o.verbose, "verbose", "p", false, "trace every operation to stdout")

	root.MarkFlagRequired("socket")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, root.ErrPrefix(), err)
		return err
	}

	return nil
}
