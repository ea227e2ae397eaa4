package cobra

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Question describes a single interactive prompt step used by RunInteractiveUI.
type Question struct {
	Text    string
	Options []string
	Handler func(string) error
}

// runQuestions walks the given questions in order on stdin/stdout, retrying
// a question until its Handler accepts the answer without error.
func runQuestions(questions []Question) {
	scn := bufio.NewScanner(os.Stdin)

	for i := 0; i < len(questions); {
		q := questions[i]

		fmt.Println(q.Text)
		if len(q.Options) > 0 {
			for j, opt := range q.Options {
				fmt.Printf("  %d. %s\n", j+1, opt)
			}
		}

		if !scn.Scan() {
			return
		}

		input := strings.TrimSpace(scn.Text())

		if len(q.Options) > 0 {
			if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(q.Options) {
				input = q.Options[n-1]
			}
		}

		if err := q.Handler(input); err != nil {
			fmt.Println(err.Error())
			continue
		}

		i++
	}
}
