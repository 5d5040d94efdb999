package listing

// Window returns items[page*size : (page+1)*size], clipped to the slice.
// A page past the end yields an empty window.
func Window[T any](items []T, page, size int) []T {
	if page < 0 || size <= 0 {
		return nil
	}
	// compare pages before multiplying so huge values cannot overflow
	if len(items) == 0 || page > (len(items)-1)/size {
		return []T{}
	}
	start := page * size
	end := len(items)
	if size < end-start {
		end = start + size
	}
	return items[start:end]
}

// TotalPages is ceil(count/size); zero items means zero pages.
func TotalPages(count, size int) int {
	if count <= 0 || size <= 0 {
		return 0
	}
	return (count + size - 1) / size
}

// Pager tracks the current page of a result set. Prev and Next do not clamp;
// callers disable their controls with HasPrev and HasNext.
type Pager struct {
	Page       int
	TotalPages int
	onChange   func(page int)
}

func NewPager(page, totalPages int, onChange func(page int)) *Pager {
	return &Pager{Page: page, TotalPages: totalPages, onChange: onChange}
}

func (p *Pager) HasPrev() bool { return p.Page > 0 }

func (p *Pager) HasNext() bool { return p.Page < p.TotalPages-1 }

func (p *Pager) Prev() { p.GoTo(p.Page - 1) }

func (p *Pager) Next() { p.GoTo(p.Page + 1) }

func (p *Pager) GoTo(page int) {
	p.Page = page
	if p.onChange != nil {
		p.onChange(page)
	}
}
