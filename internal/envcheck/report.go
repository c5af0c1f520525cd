package envcheck

import (
	"io"
	"strings"
)

// Section is one titled block of the report.
type Section struct {
	Title string
	Lines []string
}

// Report is the ordered list of sections the checker prints.
type Report struct {
	Sections []Section
}

// String renders the report exactly as WriteTo writes it.
func (r *Report) String() string {
	var b strings.Builder
	for _, s := range r.Sections {
		b.WriteString(s.Title)
		b.WriteByte('\n')
		for _, line := range s.Lines {
			b.WriteString(line)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteTo writes every section followed by a blank line.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, r.String())
	return int64(n), err
}
