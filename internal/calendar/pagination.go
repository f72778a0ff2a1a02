package calendar

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageRequest — параметры постраничной выборки (page нумеруется с 1).
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize подставляет дефолты при некорректных значениях.
func (p PageRequest) Normalize() PageRequest {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

// Offset для SQL-запроса.
func (p PageRequest) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.Limit
}

// Page описывает одну страницу элементов.
type Page[T any] struct {
	Items    []T   // элементы на текущей странице
	Page     int   // номер страницы (с 1)
	Limit    int   // количество элементов на странице
	Total    int64 // общее количество элементов
	LastPage int
	HasNext  bool
	HasPrev  bool
}

// NewPage собирает метаданные страницы по уже выбранным элементам и общему числу.
func NewPage[T any](items []T, req PageRequest, total int64) Page[T] {
	req = req.Normalize()
	if items == nil {
		items = []T{}
	}

	lastPage := int((total + int64(req.Limit) - 1) / int64(req.Limit))

	return Page[T]{
		Items:    items,
		Page:     req.Page,
		Limit:    req.Limit,
		Total:    total,
		LastPage: lastPage,
		HasNext:  req.Page < lastPage,
		HasPrev:  req.Page > 1,
	}
}

// MapPage преобразует элементы страницы, сохраняя метаданные.
func MapPage[T, R any](p Page[T], fn func(T) R) Page[R] {
	out := make([]R, 0, len(p.Items))
	for _, it := range p.Items {
		out = append(out, fn(it))
	}
	return Page[R]{
		Items:    out,
		Page:     p.Page,
		Limit:    p.Limit,
		Total:    p.Total,
		LastPage: p.LastPage,
		HasNext:  p.HasNext,
		HasPrev:  p.HasPrev,
	}
}
