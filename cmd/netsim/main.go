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

// Command netsim boots and operates a simulated packet-switched network: a
// "run" subcommand hosting a topology's nodes in one process, and a
// "manager" subcommand driving the interactive operator console against
// one of them.
package main

import (
	"fmt"
	"os"
	"time"

	libcbr "github.com/sabouaram/netsim/cobra"
)

// shutdownTimeout bounds how long a background HTTP server (the metrics
// endpoint) is given to drain in-flight requests on exit.
const shutdownTimeout = 2 * time.Second

func main() {
	app := libcbr.New()
	app.SetVersion(appVersion())
	app.Init()

	var verbose int
	app.SetFlagVerbose(true, &verbose)

	app.AddCommand(newRunCommand(app))
	app.AddCommand(newManagerCommand(app))
	app.AddCommandCompletion()

	if err := app.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
