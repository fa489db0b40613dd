// Command yabe manages the blog database: it creates, resets, seeds, queries
// and backs up the badger store.
package main

import (
	"fmt"
	"os"
)

var osExit = os.Exit

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		osExit(1)
	}
}
