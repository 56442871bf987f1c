package main

import (
	"os"

	recollectcmder "github.com/covoxlabs/recollect/cmd/recollect"
)

func main() {
	cmd := recollectcmder.NewRecollectCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
