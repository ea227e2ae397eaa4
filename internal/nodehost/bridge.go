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

package nodehost

import (
	"bufio"
	"context"
	"net"
)

// ServeManagement accepts one management connection at a time on addr and
// bridges each line-delimited command frame onto mgmt, writing the reply
// frame back, mirroring the original manager's send_fd/recv_fd pipe pair
// over a socket for a topology whose manager runs in a different process
// than its hosts. It blocks until ctx is cancelled or the listener fails.
func ServeManagement(ctx context.Context, addr string, mgmt chan<- Request) error {
	lst, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		_ = lst.Close()
	}()

	for {
		conn, err := lst.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}

		go serveManagementConn(ctx, conn, mgmt)
	}
}

func serveManagementConn(ctx context.Context, conn net.Conn, mgmt chan<- Request) {
	defer func() { _ = conn.Close() }()

	r := bufio.NewScanner(conn)
	for r.Scan() {
		rep := make(chan string, 1)
		req := Request{Command: r.Text(), Reply: rep}

		select {
		case mgmt <- req:
		case <-ctx.Done():
			return
		}

		select {
		case msg := <-rep:
			if _, err := conn.Write([]byte(msg + "\n")); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
