package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/OpenTraceMCU/pkg/regform"
)

// promptFields asks for every visible field in turn. An empty answer keeps
// the current choice and a number within the listed range picks an option
// by position. Anything else, including an out-of-range number, is matched
// against option labels and then values.
func promptFields(form *regform.Form, r io.Reader, w io.Writer) error {
	in := bufio.NewScanner(r)
	for i, f := range form.Fields() {
		if len(f.Options) == 0 {
			continue
		}
		for {
			fmt.Fprintf(w, "\n%s (%s)\n", f.Label, f.Ref())
			for j, o := range f.Options {
				mark := " "
				if j == form.Selected(i) {
					mark = "*"
				}
				fmt.Fprintf(w, "  %s %d) %-20s %s\n", mark, j+1, o.Label, o.Value)
			}
			fmt.Fprintf(w, "choice> ")
			if !in.Scan() {
				if err := in.Err(); err != nil {
					return err
				}
				return nil
			}
			answer := strings.TrimSpace(in.Text())
			if answer == "" {
				break
			}
			if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(f.Options) {
				if err := form.Select(i, n-1); err != nil {
					fmt.Fprintf(w, "%v\n", err)
					continue
				}
				break
			}
			if err := form.Set(f.Ref(), answer); err != nil {
				fmt.Fprintf(w, "%v\n", err)
				continue
			}
			break
		}
	}
	return nil
}

// parseSet splits a REG.FIELD=CHOICE assignment.
func parseSet(s string) (ref, choice string, err error) {
	ref, choice, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(ref) == "" {
		return "", "", fmt.Errorf("invalid --set %q, want REG.FIELD=CHOICE", s)
	}
	return strings.TrimSpace(ref), strings.TrimSpace(choice), nil
}
