package theme

import (
	"fmt"
)

// Banner returns the RUGGUARD startup banner.
func Banner() string {
	const cyan = "\033[36m"
	const yellow = "\033[33m"
	const red = "\033[31m"
	const reset = "\033[0m"

	art := "" +
		"   🛡  " + red + "RUGGUARD" + reset + "  🛡\n" +
		cyan + "  ▄████▄  trust reports for X  ▄████▄\n" + reset +
		yellow + "  ─────────────────────────────────\n" + reset +
		"   reply \"riddle me this\" to any tweet\n"
	return art
}

// PrintBanner prints the banner to stdout.
func PrintBanner() {
	fmt.Print(Banner())
}
