package main

import (
	"os"

	"aquariumd/internal/ctl"
)

func main() {
	os.Exit(ctl.Execute())
}
