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

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// renderProgress drives one indeterminate-total mpb bar off progress, a
// stream of cumulative byte counts fed by the same UPLOAD/DOWNLOAD chunk
// traffic the host streams on the wire (per SPEC_FULL §12's restored
// per-file transfer readout). The bar's total grows with the data seen so
// far, since neither side of the management channel knows the file size
// up front. It returns once progress is closed.
func renderProgress(label string, progress <-chan int64) {
	p := mpb.New(mpb.WithOutput(os.Stdout), mpb.WithAutoRefresh())
	defer p.Wait()

	bar := p.AddBar(1,
		mpb.PrependDecorators(decor.Name(label, decor.WC{W: len(label) + 1, C: decor.DidentRight})),
		mpb.AppendDecorators(decor.CountersKiloByte("% .1f / % .1f")),
	)

	var last int64
	for n := range progress {
		if n > last {
			bar.SetTotal(n+1, false)
			bar.IncrBy(int(n - last))
			last = n
		}
	}

	bar.SetTotal(last, true)
}
