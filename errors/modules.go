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

package errors

// Per-subsystem error code bases, one block of 100 codes per package.
const (
	MinPkgPacket     = 100
	MinPkgPort       = 200
	MinPkgTicket     = 300
	MinPkgJob        = 400
	MinPkgNode       = 500
	MinPkgSwitch     = 600
	MinPkgNameServer = 700
	MinPkgConfig     = 800
	MinPkgManager    = 900

	MinPkgIOUtils = 1000
	MinPkgConsole = 1100
	MinPkgHost    = 1200
	MinPkgCmd     = 1300

	MinAvailable = 1400

	// MIN_AVAILABLE @Deprecated use MinAvailable constant
	MIN_AVAILABLE = MinAvailable

	// MIN_PKG_IOUtils @Deprecated use MinPkgIOUtils constant
	MIN_PKG_IOUtils = MinPkgIOUtils

	// MIN_PKG_Console @Deprecated use MinPkgConsole constant
	MIN_PKG_Console = MinPkgConsole
)
