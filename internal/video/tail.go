package video

// Tail keeps the last N output lines of a tool for error reports.
type Tail struct {
	max   int
	lines []string
}

func NewTail(max int) *Tail {
	return &Tail{max: max}
}

func (t *Tail) Add(line string) {
	if t.max <= 0 {
		return
	}
	if len(t.lines) == t.max {
		copy(t.lines, t.lines[1:])
		t.lines = t.lines[:t.max-1]
	}
	t.lines = append(t.lines, line)
}

func (t *Tail) Lines() []string {
	out := make([]string, len(t.lines))
	copy(out, t.lines)
	return out
}
