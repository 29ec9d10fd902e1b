package api

import "io"

// progressReader reports the ratio of bytes read from the underlying reader
// to the known total. Ratios are monotonically non-decreasing and clamp at 1.
type progressReader struct {
	r     io.Reader
	total int64
	read  int64
	last  float64
	fn    func(ratio float64)
}

func newProgressReader(r io.Reader, total int64, fn func(float64)) *progressReader {
	return &progressReader{r: r, total: total, fn: fn}
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.read += int64(n)
		p.report()
	}
	return n, err
}

func (p *progressReader) report() {
	if p.fn == nil || p.total <= 0 {
		return
	}
	ratio := float64(p.read) / float64(p.total)
	if ratio > 1 {
		ratio = 1
	}
	if ratio <= p.last {
		return
	}
	p.last = ratio
	p.fn(ratio)
}
