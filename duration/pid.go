/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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
 */

package duration

import "context"

// stepPID is a minimal proportional-integral-derivative step generator used
// to space out a range of float64 values between two bounds. Each step size
// shrinks as the accumulated integral term grows, giving denser sampling
// near the start of the range and coarser sampling near the end.
type stepPID struct {
	rateP float64
	rateI float64
	rateD float64
}

func newStepPID(rateP, rateI, rateD float64) *stepPID {
	return &stepPID{rateP: rateP, rateI: rateI, rateD: rateD}
}

// RangeCtx returns a list of values spanning [from, to] (in either
// direction), stepping forward by a PID-controlled delta derived from the
// remaining distance. It stops early if ctx is done, always leaving the
// caller's own fallback logic to pad the result with from/to as needed.
func (p *stepPID) RangeCtx(ctx context.Context, from, to float64) []float64 {
	res := make([]float64, 0)

	if from == to {
		return append(res, from)
	}

	sign := 1.0
	if to < from {
		sign = -1.0
	}

	var (
		integral float64
		previous = from - to
	)

	cur := from
	res = append(res, cur)

	for i := 0; i < 256; i++ {
		select {
		case <-ctx.Done():
			return res
		default:
		}

		remaining := (to - cur) * sign
		if remaining <= 0 {
			break
		}

		integral += remaining
		derivative := remaining - previous
		previous = remaining

		step := p.rateP*remaining + p.rateI*integral + p.rateD*derivative
		if step <= 0 {
			step = remaining
		}
		if step > remaining {
			step = remaining
		}

		cur += sign * step
		res = append(res, cur)

		if remaining-step <= 0 {
			break
		}
	}

	if last := res[len(res)-1]; last != to {
		res = append(res, to)
	}

	return res
}
