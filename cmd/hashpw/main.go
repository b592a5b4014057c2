package main

import (
	"fmt"
	"os"

	"github.com/dmitrijs2005/lockerkeeper/internal/hashpw"
)

func main() {
	if err := hashpw.Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "hashpw:", err)
		os.Exit(1)
	}
}
