package theme

// Banner returns the CLI banner.
func Banner() string {
	const cyan = "\033[36m"
	const magenta = "\033[35m"
	const reset = "\033[0m"

	return "" +
		cyan + "  ─┬─ " + reset + magenta + "threadloom" + reset + "\n" +
		cyan + "   ├──┬─ " + reset + "notes, replies, reactions\n" +
		cyan + "   │  └─ " + reset + "woven into one conversation tree\n" +
		cyan + "   └─ " + reset + "out of order, never rebuilt\n"
}
