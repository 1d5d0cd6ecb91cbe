package order

const DefaultPageSize = 20

type Page struct {
	Orders       []Order `json:"orders"`
	Page         int     `json:"page"`
	TotalRecords int64   `json:"total_records"`
	HasMore      bool    `json:"has_more"`
}

// Paginate returns page n (1-based) of all. A page past the end is empty and
// reports no more pages.
func Paginate(all []Order, totalRecords int64, n, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	if n < 1 {
		n = 1
	}

	p := Page{Orders: []Order{}, Page: n, TotalRecords: totalRecords}

	start := (n - 1) * size
	if start >= len(all) {
		return p
	}
	end := min(start+size, len(all))

	p.Orders = all[start:end]
	p.HasMore = end < len(all)
	return p
}

// Detail is an expanded order row.
type Detail struct {
	Order
	TotalGeneral float64 `json:"total_general"`
}

func NewDetail(o Order) Detail {
	if o.Lines == nil {
		o.Lines = []Line{}
	}
	return Detail{Order: o, TotalGeneral: o.Total()}
}
