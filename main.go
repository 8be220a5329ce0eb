package main

import (
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/cmd"
)

func main() {
	cmd.Execute()
}
