package main

import (
	"github.com/osler-labs/medcanvas/cmd"
)

func main() {
	cmd.Execute()
}
