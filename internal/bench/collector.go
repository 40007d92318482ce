package bench

// Collector accumulates the values matched by a Task. A collector belongs to
// exactly one worker while it runs and is read once after the worker ends.
type Collector interface {
	Append(n int64)
	Len() int64
}

// CountCollector records how many values were appended without keeping them.
// It is the default collector: memory stays constant whatever the work size.
type CountCollector struct {
	n int64
}

// Append records one more match.
func (c *CountCollector) Append(int64) { c.n++ }

// Len returns the number of matches.
func (c *CountCollector) Len() int64 { return c.n }

// SliceCollector keeps every appended value.
type SliceCollector struct {
	Values []int64
}

// Append stores n.
func (c *SliceCollector) Append(n int64) { c.Values = append(c.Values, n) }

// Len returns the number of stored values.
func (c *SliceCollector) Len() int64 { return int64(len(c.Values)) }
