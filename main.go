package main

import (
	// run.timezone must resolve in minimal containers without zoneinfo
	_ "time/tzdata"

	"github.com/thewisemo/al-eairy-ota/cmd"
)

func main() {
	cmd.Execute()
}
