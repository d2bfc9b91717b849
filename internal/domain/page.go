package domain

// Page содержит срез отфильтрованной выборки и общее число записей в ней.
type Page[T any] struct {
	Items []T
	Page  int
	Size  int
	Total int
}

// TotalPages возвращает количество страниц при текущем размере.
func (p Page[T]) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return (p.Total + p.Size - 1) / p.Size
}
