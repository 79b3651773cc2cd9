package main

import (
	// Embedded zone database so agenda.timezone resolves on minimal hosts
	_ "time/tzdata"

	"github.com/pfrederiksen/inovar-agenda/internal/cli"
)

func main() {
	cli.Execute()
}
