/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package manager

import (
	"os"
	"strconv"
	"strings"

	prompt "github.com/c-bata/go-prompt"
	"github.com/fatih/color"

	"github.com/sabouaram/netsim/console"
)

func init() {
	console.SetColor(console.ColorPrint, int(color.FgGreen))
	console.SetColor(console.ColorPrompt, int(color.FgCyan))
}

// errColor renders operator-facing errors in red, the original manager's
// failure coloring (src/color.c), kept separate from console's two
// registered ColorTypes since those are reserved for acks and prompts.
var errColor = color.New(color.FgRed)

var commandSuggestions = []prompt.Suggest{
	{Text: "s", Description: "show status of the current host"},
	{Text: "m", Description: "set the current host's local directory"},
	{Text: "h", Description: "list reachable hosts"},
	{Text: "c", Description: "change the current host"},
	{Text: "p", Description: "ping a destination"},
	{Text: "u", Description: "upload a file to a destination"},
	{Text: "d", Description: "download a file from a destination"},
	{Text: "a", Description: "register a name at the name server"},
	{Text: "l", Description: "list all known nodes and their kind"},
	{Text: "q", Description: "quit"},
}

// Run drives the interactive console until the operator quits or ctx ends.
// Each command line is tokenized, missing arguments are prompted for with
// console.PromptString, and multi-chunk transfers render a live mpb bar.
func (m *Manager) Run() error {
	defer m.Close()

	console.ColorPrint.Println("netsim manager — type a command, or 'l' to list nodes")

	executor := func(line string) {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			return
		}

		res := m.Dispatch(fields, promptArg, renderProgress)
		if res.Text != "" {
			if res.IsError {
				_, _ = errColor.Fprintln(os.Stderr, res.Text)
			} else {
				console.ColorPrint.Println(res.Text)
			}
		}

		if res.Quit {
			m.Close()
			os.Exit(0)
		}
	}

	completer := func(d prompt.Document) []prompt.Suggest {
		return prompt.FilterHasPrefix(commandSuggestions, d.GetWordBeforeCursor(), true)
	}

	pt := prompt.New(executor, completer,
		prompt.OptPrefix(m.livePrefix()),
		prompt.OptLivePrefix(func() (string, bool) { return m.livePrefix(), true }),
		prompt.OptTitle("netsim manager"),
	)

	pt.Run()
	return nil
}

func (m *Manager) livePrefix() string {
	return "host(" + strconv.Itoa(int(m.current)) + ")> "
}

func promptArg(label string) (string, error) {
	return console.PromptString(label)
}
