package main

import (
	"os"

	"github.com/lwmacct/261015-go-pkg-svcboot/internal/command/server"
)

func main() {
	os.Exit(server.Main())
}
