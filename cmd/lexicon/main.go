// Command lexicon checks texts against a dictionary word list.
package main

import "github.com/wizenheimer/lexicon/cmd/lexicon/app"

func main() {
	app.Execute()
}
